// Package http provides the HTTP surface of the sound map.
//
// # Routes
//
//	GET  /sound-list       public, enabled sounds only
//	GET  /full-sound-list  admin scope, every sound
//	POST /sound-status     admin scope, form fields id and enabled
//	POST /delete-sound     admin scope, form field id
//	POST /sound            create scope, multipart file, lat, lng, description
//	GET  /media/{name}     public, only when a MediaSource is configured
//	GET  /healthz          public
//
// Every failure is a JSON body of the form {"message": "..."}.
//
// # Admission pipeline
//
// Each request passes, in order, through panic recovery, real client IP
// resolution, request id, request logging, no-cache headers, CORS (when
// enabled) and the fixed-window rate limiter. Protected routes then run
// ValidateCredential, which verifies the bearer token, and RequireScopes.
// The first middleware to reject a request writes the response and stops
// the chain.
//
// # Usage
//
//	keys, _ := keybackend.NewKeyStore(ctx, keybackend.KeysConfig{JWKSURL: jwksURL})
//	verifier, _ := soundmap.NewCredentialVerifier(keys, soundmap.VerifierConfig{
//	    Issuer:   "https://tenant.example.com/",
//	    Audience: "https://api.example.com",
//	})
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    Verifier:      verifier,
//	    MaxUploadSize: 10 << 20,
//	    RateLimit:     http.RateLimitConfig{Enabled: true, Requests: 100, Window: 15 * time.Minute},
//	}, service)
//	http.ListenAndServe(":8080", handler.Router())
package http
