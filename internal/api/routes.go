package api

import (
	"fmt"
	"net/url"
	"strings"
)

// RouteJobDetail builds the web console link for a plan's job detail
// page. Share links and list output point users at the same place the
// browser app would.
func RouteJobDetail(baseURL, productSlug, versionLabel, planSlug string) string {
	base := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	return fmt.Sprintf(
		"%s/products/%s/versions/%s/plans/%s",
		base,
		url.PathEscape(productSlug),
		url.PathEscape(versionLabel),
		url.PathEscape(planSlug),
	)
}
