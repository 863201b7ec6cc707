package publish

import "context"

const MaxImages = 4

// Content is the destination-agnostic bag handed to a Publisher. Each
// destination decides which fields it can use.
type Content struct {
	Text      string   `json:"text"`
	Link      string   `json:"link,omitempty"`
	ImageURLs []string `json:"image_urls,omitempty"`
}

// Publisher posts content to one destination and returns the identifier the
// destination assigned to the new post.
type Publisher interface {
	Publish(ctx context.Context, content Content) (string, error)
}

// Pacer is implemented by publishers that throttle their destination. Wait
// blocks until the next Publish may go out and must be called once per post,
// outside any per-call deadline.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Images returns at most MaxImages non-empty image URLs.
func (c Content) Images() []string {
	images := make([]string, 0, MaxImages)
	for _, u := range c.ImageURLs {
		if u == "" {
			continue
		}
		images = append(images, u)
		if len(images) == MaxImages {
			break
		}
	}
	return images
}
