package collector

import "regexp"

var (
	isWellFormedLink = regexp.MustCompile(`^https?://.+/.+$`)
	isRootPath       = regexp.MustCompile(`^/.+$`)
)

// Resolve turns a link found on a site into an absolute URL. Absolute links
// are returned unchanged, root-relative links are appended to host and bare
// relative paths are joined to host with a slash.
func Resolve(host, link string) string {
	if isWellFormedLink.MatchString(link) {
		return link
	}
	if isRootPath.MatchString(link) {
		return host + link
	}
	return host + "/" + link
}
