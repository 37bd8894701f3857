// Package cdn recognises image URLs served by the image CDN and derives
// transformed and fallback delivery URLs from their public identifiers.
package cdn

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

const uploadMarker = "/upload/"

var versionSegment = regexp.MustCompile(`^v[0-9]+$`)

// Transform describes a delivery transformation. Zero fields are omitted.
type Transform struct {
	Quality string // e.g. "auto", "80"
	Format  string // e.g. "auto", "webp"
	Crop    string // e.g. "fill", "limit"
	Width   int
	Height  int
	Gravity string // e.g. "auto", "face"
	Effects []string
}

// String renders the transformation segment. Quality and format come first,
// then crop, dimensions and gravity, then effects.
func (t Transform) String() string {
	var parts []string
	if t.Quality != "" {
		parts = append(parts, "q_"+t.Quality)
	}
	if t.Format != "" {
		parts = append(parts, "f_"+t.Format)
	}
	if t.Crop != "" {
		parts = append(parts, "c_"+t.Crop)
	}
	if t.Width > 0 {
		parts = append(parts, "w_"+strconv.Itoa(t.Width))
	}
	if t.Height > 0 {
		parts = append(parts, "h_"+strconv.Itoa(t.Height))
	}
	if t.Gravity != "" {
		parts = append(parts, "g_"+t.Gravity)
	}
	for _, e := range t.Effects {
		if e != "" {
			parts = append(parts, "e_"+e)
		}
	}
	return strings.Join(parts, ",")
}

// Preset transformations used by the API responses.
var (
	Banner    = Transform{Quality: "auto", Format: "auto", Crop: "fill", Width: 1200, Height: 630, Gravity: "auto"}
	Thumbnail = Transform{Quality: "auto", Format: "auto", Crop: "fill", Width: 400, Height: 300, Gravity: "auto"}
)

// ImageURLs is the pair of URLs a client tries in order before falling back
// to its own placeholder.
type ImageURLs struct {
	Primary  string `json:"primary"`
	Fallback string `json:"fallback,omitempty"`
}

// Resolver knows the CDN host and delivery base URL.
type Resolver struct {
	host    string
	baseURL string
}

// NewResolver creates a Resolver. baseURL is the delivery prefix that ends
// at the upload marker, e.g. https://res.cloudinary.com/demo/image/upload.
func NewResolver(host, baseURL string) *Resolver {
	return &Resolver{
		host:    strings.ToLower(strings.TrimSpace(host)),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// IsCDNURL reports whether url is hosted on the CDN.
func (r *Resolver) IsCDNURL(url string) bool {
	if r == nil || r.host == "" || url == "" {
		return false
	}
	return strings.Contains(strings.ToLower(url), r.host)
}

// ExtractPublicID returns the identifier embedded after the upload marker:
// the version segment is skipped and the file extension removed from the
// final path segment. Foreign URLs and URLs without the marker return false.
func (r *Resolver) ExtractPublicID(url string) (string, bool) {
	if !r.IsCDNURL(url) {
		return "", false
	}

	idx := strings.Index(url, uploadMarker)
	if idx < 0 {
		return "", false
	}

	rest := url[idx+len(uploadMarker):]
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}

	segments := strings.Split(strings.Trim(rest, "/"), "/")
	if len(segments) > 0 && versionSegment.MatchString(segments[0]) {
		segments = segments[1:]
	}
	if len(segments) == 0 {
		return "", false
	}

	last := segments[len(segments)-1]
	id := strings.TrimSuffix(last, path.Ext(last))
	if id == "" {
		return "", false
	}
	return id, true
}

// BuildURL returns the delivery URL for publicID with t applied. The
// transformation segment is left out entirely when t is empty.
func (r *Resolver) BuildURL(publicID string, t Transform) string {
	if publicID == "" {
		return ""
	}
	if seg := t.String(); seg != "" {
		return r.baseURL + "/" + seg + "/" + publicID
	}
	return r.baseURL + "/" + publicID
}

// FallbackURL is the untransformed delivery URL for publicID.
func (r *Resolver) FallbackURL(publicID string) string {
	return r.BuildURL(publicID, Transform{})
}

// Resolve derives the URLs a client should try for a stored image reference.
// Non-CDN references are returned unchanged with no fallback.
func (r *Resolver) Resolve(url string, t Transform) ImageURLs {
	id, ok := r.ExtractPublicID(url)
	if !ok {
		return ImageURLs{Primary: url}
	}
	return ImageURLs{
		Primary:  r.BuildURL(id, t),
		Fallback: r.FallbackURL(id),
	}
}
