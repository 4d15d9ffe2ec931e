// Package soundmap manages the lifecycle of geotagged audio recordings
// ("sounds") published on a public map.
//
// A sound lives in two places: the audio bytes are kept in a blob store and
// the searchable record (coordinates, description, visibility flag, retrieval
// URL) is kept in a relational metadata store. The two stores share no
// transaction, so SoundService sequences every mutation in a fixed order:
//
//   - Create writes the blob first and inserts the row second. A failed insert
//     leaves an orphaned blob, which is logged and never referenced.
//   - Delete removes the blob first and the row second. A failed blob delete
//     leaves the row in place, so nothing public points at missing media.
//   - SetEnabled only touches the row.
//
// # Key Components
//
//   - SoundService: lifecycle orchestrator over a SoundRepo and a BlobStore
//   - SoundRepo: metadata persistence (PostgreSQL, SQLite)
//   - BlobStore: binary storage (local filesystem, S3-compatible)
//
// # Example Usage
//
//	service, err := soundmap.NewSoundService(repo, blobs, soundmap.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sound, err := service.Create(ctx, soundmap.CreateSound{
//	    Latitude:    51.5,
//	    Longitude:   -0.12,
//	    ContentType: "audio/mp4",
//	}, reader)
//
// See the http package for the REST API and the database package for the
// metadata backends.
package soundmap
