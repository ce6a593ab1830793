// Package config loads the gateway configuration.
//
// Configuration is read from one file, YAML by default or JSON with
// comments when the file ends in .json or .jsonc. Before decoding, optional
// dotenv files are loaded and ${VAR} references are expanded, so secrets
// can stay out of the file:
//
//	listen:
//	  addr: ":8080"
//	openid:
//	  authority: "https://login.example.com"
//	  clientId: "bff"
//	  clientSecret: "${BFF_CLIENT_SECRET}"
//	session:
//	  identityFile: "/etc/bffgate/identity.txt"
//	routes:
//	  - name: api
//	    prefix: /api/
//	    upstream: "http://orders.internal:8080"
//	    stripPrefix: true
//	  - prefix: /
//	    upstream: "http://frontend.internal:3000"
//	metrics:
//	  enabled: true
//	  addr: "127.0.0.1:9090"
//
// Unset optional fields are filled by ApplyDefaults. Validate reports every
// problem in one ValidationErrors value.
package config
