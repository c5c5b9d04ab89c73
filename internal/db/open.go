package db

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
)

// Backends Open understands.
const (
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"
	BackendMemory    = "memory"
)

// OpenOptions select and configure the document store backend.
type OpenOptions struct {
	Backend  string
	Firebase FirebaseConfig
	Mongo    MongoConfig
	// WithAuth also initializes the Firebase Auth client, whatever the backend.
	WithAuth bool
}

// Opened is the result of Open. Auth is nil unless it was requested.
type Opened struct {
	Store Store
	Auth  *auth.Client
}

// Open connects the configured backend.
func Open(ctx context.Context, opts OpenOptions, logger *zap.Logger) (*Opened, error) {
	var fb *FirebaseClients
	if opts.Backend == BackendFirestore || opts.WithAuth {
		var err error
		fb, err = InitFirebase(ctx, opts.Firebase, logger)
		if err != nil {
			return nil, err
		}
	}

	out := &Opened{}
	if fb != nil && opts.WithAuth {
		out.Auth = fb.Auth
	}

	switch opts.Backend {
	case BackendFirestore:
		out.Store = NewFirestoreStore(fb.Firestore)
		return out, nil
	case BackendMongo:
		client, err := NewMongoConnection(ctx, opts.Mongo, logger)
		if err != nil {
			return nil, err
		}
		out.Store = NewMongoStore(client, opts.Mongo.DBName)
	case BackendMemory:
		logger.Warn("Using the in-memory store; data is lost on restart")
		out.Store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}

	if fb != nil {
		_ = fb.Firestore.Close()
	}
	return out, nil
}
