package places

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Rectangle is an axis-aligned viewport: Low is the southwest corner,
// High the northeast.
type Rectangle struct {
	Low  LatLng `json:"low"`
	High LatLng `json:"high"`
}

// LocationRect is a rectangular location bias.
type LocationRect struct {
	Rectangle Rectangle `json:"rectangle"`
}

// TextSearchRequest is the body of a places:searchText call.
type TextSearchRequest struct {
	TextQuery    string        `json:"textQuery"`
	LocationBias *LocationRect `json:"locationBias,omitempty"`
	PageToken    string        `json:"pageToken,omitempty"`
}

// TextSearchResponse is one page of text-search results. An empty Places
// slice means zero results for the query/bias.
type TextSearchResponse struct {
	Places        []Place `json:"places"`
	NextPageToken string  `json:"nextPageToken"`
}

// Place is a search result or place-detail record. Detail-only fields
// (phone, reviews) are zero-valued on search results.
type Place struct {
	ID                  string      `json:"id"`
	DisplayName         DisplayName `json:"displayName"`
	FormattedAddress    string      `json:"formattedAddress"`
	Location            *LatLng     `json:"location,omitempty"`
	Rating              float64     `json:"rating,omitempty"`
	UserRatingCount     int         `json:"userRatingCount,omitempty"`
	BusinessStatus      string      `json:"businessStatus,omitempty"`
	WebsiteURI          string      `json:"websiteUri,omitempty"`
	PriceLevel          string      `json:"priceLevel,omitempty"`
	NationalPhoneNumber string      `json:"nationalPhoneNumber,omitempty"`
	Reviews             []Review    `json:"reviews,omitempty"`
}

// DisplayName holds the place's display name.
type DisplayName struct {
	Text string `json:"text"`
}

// Review is a single user review on a place detail.
type Review struct {
	Rating                         float64           `json:"rating"`
	Text                           ReviewText        `json:"text"`
	AuthorAttribution              AuthorAttribution `json:"authorAttribution"`
	RelativePublishTimeDescription string            `json:"relativePublishTimeDescription"`
}

// ReviewText holds the review body.
type ReviewText struct {
	Text string `json:"text"`
}

// AuthorAttribution identifies a review's author.
type AuthorAttribution struct {
	DisplayName string `json:"displayName"`
}
