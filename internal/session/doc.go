// Package session holds the gateway's client-side session: the Session
// record, its sealed cookie form and the Validator that keeps the access
// token fresh.
//
// A session travels as a cookie whose value is
//
//	base64url(age(version || zstd(cbor(Session))))
//
// sealed to the gateway's own X25519 identity. Values too large for one
// cookie are split into chunk cookies by Store.
//
// On every request the Validator decides whether the session is left alone,
// replaced by a renewed copy, or rejected:
//
//	decision, err := validator.Validate(ctx, sess)
//	switch decision.Kind {
//	case session.DecisionRenewed:
//		store.Save(w, r, decision.Session)
//	case session.DecisionRejected:
//		store.Clear(w, r)
//	}
package session
