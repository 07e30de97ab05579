package domain

import "context"

// CatalogProvider supplies the officially curated templates, usually over the network.
type CatalogProvider interface {
	FetchTemplates(ctx context.Context) ([]PoseTemplate, error)
}

// Generator turns a captured photo into a new template, outline included.
// The image bytes are not retained by the generator; the caller persists them.
type Generator interface {
	Generate(ctx context.Context, photo []byte) (PoseTemplate, error)
}

// Detector extracts the live skeleton from one camera frame.
// The returned keypoints follow the canonical 33-landmark order.
type Detector interface {
	Detect(ctx context.Context, frame []byte) ([]KeyPoint, error)
}
