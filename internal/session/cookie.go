package session

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultCookieName is the name of the session cookie.
	DefaultCookieName = "bffgate_session"

	// DefaultChunkSize is the largest cookie value written in one cookie.
	// Browsers limit a cookie to about 4096 bytes including its name and
	// attributes.
	DefaultChunkSize = 3800

	// maxChunks bounds how many chunk cookies are read back.
	maxChunks = 32

	chunkCountPrefix = "chunks-"
	chunkSuffix      = "C"
)

// ErrIncompleteCookie is returned when a chunked cookie is missing parts.
var ErrIncompleteCookie = errors.New("chunked session cookie is incomplete")

// CookieOptions controls how the session cookie is written.
type CookieOptions struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	SameSite http.SameSite
	// MaxAge of zero writes a browser-session cookie.
	MaxAge time.Duration
	// ChunkSize of zero uses DefaultChunkSize.
	ChunkSize int
}

// Store reads and writes sealed sessions in request and response cookies.
// Values longer than the chunk size are split across name, nameC1..nameCN,
// with the first cookie holding "chunks-N".
type Store struct {
	sealer *Sealer
	opts   CookieOptions
}

// NewStore creates a cookie store.
func NewStore(sealer *Sealer, opts CookieOptions) *Store {
	if opts.Name == "" {
		opts.Name = DefaultCookieName
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.SameSite == 0 {
		opts.SameSite = http.SameSiteLaxMode
	}
	return &Store{sealer: sealer, opts: opts}
}

// CookieName returns the base cookie name.
func (s *Store) CookieName() string {
	return s.opts.Name
}

// Owns reports whether a cookie name belongs to the session artifact.
func (s *Store) Owns(name string) bool {
	if name == s.opts.Name {
		return true
	}
	rest, ok := strings.CutPrefix(name, s.opts.Name+chunkSuffix)
	if !ok {
		return false
	}
	n, err := strconv.Atoi(rest)
	return err == nil && n >= 1
}

// Load returns the request's session, or nil without error when the request
// carries no session cookie.
func (s *Store) Load(r *http.Request) (*Session, error) {
	value, err := s.readValue(r)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, nil
	}
	return s.sealer.Open(value)
}

// Save seals sess and writes it, removing chunk cookies left over from a
// longer previous value.
func (s *Store) Save(w http.ResponseWriter, r *http.Request, sess *Session) error {
	value, err := s.sealer.Seal(sess)
	if err != nil {
		return err
	}

	previous := s.chunkCount(r)

	if len(value) <= s.opts.ChunkSize {
		http.SetCookie(w, s.cookie(s.opts.Name, value))
		s.expireChunks(w, 1, previous)
		return nil
	}

	chunks := split(value, s.opts.ChunkSize)
	if len(chunks) > maxChunks {
		return fmt.Errorf("sealed session needs %d cookies, limit is %d", len(chunks), maxChunks)
	}

	http.SetCookie(w, s.cookie(s.opts.Name, chunkCountPrefix+strconv.Itoa(len(chunks))))
	for i, chunk := range chunks {
		http.SetCookie(w, s.cookie(s.chunkName(i+1), chunk))
	}
	s.expireChunks(w, len(chunks)+1, previous)
	return nil
}

// Clear expires the session cookie and every chunk the request carried.
func (s *Store) Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.expired(s.opts.Name))
	s.expireChunks(w, 1, s.chunkCount(r))
}

func (s *Store) readValue(r *http.Request) (string, error) {
	head, err := r.Cookie(s.opts.Name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	count, chunked, err := parseChunkCount(head.Value)
	if err != nil {
		return "", err
	}
	if !chunked {
		return head.Value, nil
	}

	var b strings.Builder
	for i := 1; i <= count; i++ {
		c, err := r.Cookie(s.chunkName(i))
		if err != nil {
			return "", fmt.Errorf("%w: chunk %d of %d", ErrIncompleteCookie, i, count)
		}
		b.WriteString(c.Value)
	}
	return b.String(), nil
}

// chunkCount returns how many chunk cookies the request carries according
// to its main cookie.
func (s *Store) chunkCount(r *http.Request) int {
	if r == nil {
		return 0
	}
	head, err := r.Cookie(s.opts.Name)
	if err != nil {
		return 0
	}
	count, _, err := parseChunkCount(head.Value)
	if err != nil {
		return 0
	}
	return count
}

func (s *Store) expireChunks(w http.ResponseWriter, from, to int) {
	for i := from; i <= to; i++ {
		http.SetCookie(w, s.expired(s.chunkName(i)))
	}
}

func (s *Store) chunkName(i int) string {
	return s.opts.Name + chunkSuffix + strconv.Itoa(i)
}

func (s *Store) cookie(name, value string) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     s.opts.Path,
		Domain:   s.opts.Domain,
		Secure:   s.opts.Secure,
		HttpOnly: true,
		SameSite: s.opts.SameSite,
	}
	if s.opts.MaxAge > 0 {
		c.MaxAge = int(s.opts.MaxAge / time.Second)
	}
	return c
}

func (s *Store) expired(name string) *http.Cookie {
	c := s.cookie(name, "")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}

// parseChunkCount interprets a main cookie value. It reports chunked=false
// for an ordinary sealed value.
func parseChunkCount(value string) (count int, chunked bool, err error) {
	rest, ok := strings.CutPrefix(value, chunkCountPrefix)
	if !ok {
		return 0, false, nil
	}
	count, err = strconv.Atoi(rest)
	if err != nil || count < 1 || count > maxChunks {
		return 0, true, fmt.Errorf("invalid session cookie chunk count %q", rest)
	}
	return count, true, nil
}

func split(value string, size int) []string {
	chunks := make([]string, 0, len(value)/size+1)
	for len(value) > size {
		chunks = append(chunks, value[:size])
		value = value[size:]
	}
	return append(chunks, value)
}
