package publish

import (
	"strings"

	"SocialFactory/internal/ports"
)

// Supported platform names. Anything else resolves to the fallback publisher,
// which produces an unpublished draft for manual posting.
const (
	PlatformWordPress = "wordpress"
	PlatformLinkedIn  = "linkedin"
	PlatformInstagram = "instagram"
	PlatformYouTube   = "youtube"
	PlatformTikTok    = "tiktok"
	PlatformTwitter   = "twitter"
)

// Registry keeps a mapping from platform names to publisher implementations,
// plus a fallback used for platforms without a direct integration.
type Registry struct {
	publishers map[string]ports.Publisher
	fallback   ports.Publisher
}

// NewRegistry builds a registry with the given draft-fallback publisher.
func NewRegistry(fallback ports.Publisher) *Registry {
	return &Registry{
		publishers: map[string]ports.Publisher{},
		fallback:   fallback,
	}
}

// Register adds or replaces a publisher for a platform name.
func (r *Registry) Register(platform string, pub ports.Publisher) {
	if r.publishers == nil {
		r.publishers = map[string]ports.Publisher{}
	}
	r.publishers[normalize(platform)] = pub
}

// Resolve returns the publisher for a platform. Matching is case-insensitive;
// "blog" is an alias for wordpress. The second return reports whether the
// platform had a direct integration or fell back to the draft publisher.
func (r *Registry) Resolve(platform string) (ports.Publisher, bool) {
	name := normalize(platform)
	if name == "blog" {
		name = PlatformWordPress
	}
	if pub, ok := r.publishers[name]; ok {
		return pub, true
	}
	return r.fallback, false
}

func normalize(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}
