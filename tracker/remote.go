package tracker

import (
	"context"

	"pagetrail/api/models"
)

// Remote is the backend that stores visitors, page views and behavior
// events. client.Client implements it over HTTP.
type Remote interface {
	GetOrCreateVisitor(ctx context.Context, req models.VisitorRequest) (string, error)
	TrackPageView(ctx context.Context, req models.PageViewRequest) (string, error)
	UpdatePageView(ctx context.Context, pageViewID string, upd models.PageViewUpdate) error
	TrackBehavior(ctx context.Context, req models.BehaviorRequest) error
	TrackSearch(ctx context.Context, req models.SearchRequest) error
	UpsertPreference(ctx context.Context, req models.PreferenceRequest) error
}
