package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// EventSummary is the attendee view of an event
type EventSummary struct {
	EventID    string `json:"event_id" example:"482913"`
	Name       string `json:"name" example:"Asha & Ravi Wedding"`
	Date       string `json:"date,omitempty" example:"2026-05-01"`
	CoverImage string `json:"cover_image,omitempty" example:"https://chitral-photos.s3.amazonaws.com/events/shared/482913/cover.jpg"`
	PhotoCount int    `json:"photo_count" example:"1240"`
}

// Event is the organizer view of an event
type Event struct {
	EventID     string   `json:"event_id" example:"482913"`
	Name        string   `json:"name" example:"Asha & Ravi Wedding"`
	Date        string   `json:"date,omitempty" example:"2026-05-01"`
	Description string   `json:"description,omitempty" example:"Reception at the lake house"`
	CoverImage  string   `json:"cover_image,omitempty" example:"https://chitral-photos.s3.amazonaws.com/events/shared/482913/cover.jpg"`
	OwnerEmail  string   `json:"owner_email" example:"host@example.com"`
	EmailAccess []string `json:"email_access,omitempty" example:"helper@example.com"`
	PhotoCount  int      `json:"photo_count" example:"1240"`
	CreatedAt   string   `json:"created_at" example:"2026-04-01T10:00:00Z"`
}

type EventList struct {
	Events []Event `json:"events"`
}

type CreateEventRequest struct {
	Name             string   `json:"name" example:"Asha & Ravi Wedding"`
	Date             string   `json:"date" example:"2026-05-01"`
	Description      string   `json:"description" example:"Reception at the lake house"`
	EmailAccess      []string `json:"email_access" example:"helper@example.com"`
	OrganizationCode string   `json:"organization_code" example:"STUDIO42"`
}

type GrantAccessRequest struct {
	Email string `json:"email" example:"helper@example.com"`
}

type UploadedFile struct {
	Filename string `json:"filename" example:"IMG_0001.jpg"`
	Key      string `json:"key" example:"events/shared/482913/images/1767225600000-0-IMG_0001.jpg"`
	URL      string `json:"url" example:"https://chitral-photos.s3.amazonaws.com/events/shared/482913/images/1767225600000-0-IMG_0001.jpg"`
}

type UploadFailure struct {
	Filename string `json:"filename" example:"notes.txt"`
	Reason   string `json:"reason" example:"only jpg, jpeg and png files are supported"`
}

type UploadReport struct {
	EventID    string          `json:"event_id" example:"482913"`
	Uploaded   []UploadedFile  `json:"uploaded"`
	Failed     []UploadFailure `json:"failed"`
	PhotoCount int             `json:"photo_count" example:"1242"`
}

type Match struct {
	ImageKey   string  `json:"image_key,omitempty" example:"events/shared/482913/images/1767225600000-0-IMG_0001.jpg"`
	ImageURL   string  `json:"image_url" example:"https://chitral-photos.s3.amazonaws.com/events/shared/482913/images/1767225600000-0-IMG_0001.jpg"`
	Similarity float64 `json:"similarity" example:"99.1"`
}

type MatchResult struct {
	EventID   string  `json:"event_id" example:"482913"`
	Matches   []Match `json:"matches"`
	FromCache bool    `json:"from_cache" example:"false"`
	Scanned   int     `json:"scanned" example:"1240"`
	Failed    int     `json:"failed" example:"2"`
}

type EventPhotos struct {
	EventID     string   `json:"event_id" example:"482913"`
	EventName   string   `json:"event_name" example:"Asha & Ravi Wedding"`
	CoverImage  string   `json:"cover_image,omitempty" example:"https://chitral-photos.s3.amazonaws.com/events/shared/482913/cover.jpg"`
	Images      []string `json:"images" example:"https://chitral-photos.s3.amazonaws.com/events/shared/482913/images/1767225600000-0-IMG_0001.jpg"`
	LastUpdated string   `json:"last_updated" example:"2026-05-02T09:30:00Z"`
}

type MyPhotosResponse struct {
	Events []EventPhotos `json:"events"`
}

type BoundingBox struct {
	Left   float64 `json:"left" example:"0.31"`
	Top    float64 `json:"top" example:"0.22"`
	Width  float64 `json:"width" example:"0.12"`
	Height float64 `json:"height" example:"0.18"`
}

type FaceRecord struct {
	FaceID      string      `json:"face_id" example:"2c1f4e0a-7a4b-4b7e-9d0e-3b3e6c1f9a11"`
	ImageKey    string      `json:"image_key" example:"events/shared/482913/images/1767225600000-0-IMG_0001.jpg"`
	ImageURL    string      `json:"image_url" example:"https://chitral-photos.s3.amazonaws.com/events/shared/482913/images/1767225600000-0-IMG_0001.jpg"`
	BoundingBox BoundingBox `json:"bounding_box"`
	Confidence  float64     `json:"confidence" example:"99.9"`
}

type Group struct {
	ID             string     `json:"id" example:"group_1"`
	Representative FaceRecord `json:"representative"`
	FaceCount      int        `json:"face_count" example:"14"`
	Images         []string   `json:"images" example:"https://chitral-photos.s3.amazonaws.com/events/shared/482913/images/1767225600000-0-IMG_0001.jpg"`
}

type GroupsResponse struct {
	EventID      string  `json:"event_id" example:"482913"`
	Groups       []Group `json:"groups"`
	TotalFaces   int     `json:"total_faces" example:"512"`
	ImagesFailed int     `json:"images_failed" example:"0"`
}

type SelfieResponse struct {
	SelfieURL string `json:"selfie_url" example:"https://chitral-photos.s3.amazonaws.com/users/guest@example.com/selfies/selfie-1767225600000-me.jpg"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code      string `json:"code" example:"VALIDATION_FAILED"`
	Message   string `json:"message" example:"Request validation failed"`
	RequestID string `json:"request_id,omitempty" example:"6f1c2b9e-1f0a-4d8e-a3c1-0b6f9c2d7e41"`
}

type EmptyResponse struct{}

var (
	errUnauthorized = response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Missing or invalid user identity"}, "401", "Unauthorized")
	errForbidden    = response.New(ErrorResponse{Code: "FORBIDDEN", Message: "Access denied"}, "403", "Forbidden")
	errEventMissing = response.New(ErrorResponse{Code: "EVENT_NOT_FOUND", Message: "Event not found"}, "404", "Not Found")
	errValidation   = response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity")
	errRateLimited  = response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded"}, "429", "Too Many Requests")
	errInternal     = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")

	// Identity comes from the X-User-Email header set by the upstream auth layer.
	userAuth = endpoint.WithSecurity([]map[string][]string{{"UserEmail": {}}})
)

func eventIDParam() *parameter.Parameter {
	return parameter.StrParam("id", parameter.Path, parameter.WithDescription("Event code"))
}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Chitralai API",
		Version:     "v1.0.0",
		Description: "Event photo sharing: resolve event codes, find your photos with a selfie, group event photos by person",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// GET /v1/events/resolve
		endpoint.New(
			endpoint.GET,
			"/events/resolve",
			endpoint.WithTags("Events"),
			endpoint.WithSummary("Resolve an event code"),
			endpoint.WithDescription("Looks up an event by the code an attendee typed. Codes typed without their leading zeros, or stored without them, are still found."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("code", parameter.Query, parameter.WithDescription("Event code as typed")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EventSummary{}, "200", "Event found"),
			}),
			endpoint.WithErrors([]response.Response{errEventMissing, errValidation, errInternal}),
		),

		// POST /v1/events
		endpoint.New(
			endpoint.POST,
			"/events",
			endpoint.WithTags("Events"),
			endpoint.WithSummary("Create an event"),
			endpoint.WithDescription("Creates an event owned by the caller under a fresh 6-digit code. Send multipart form fields instead of JSON to attach a 'cover' image, stored as the event's cover.jpg."),
			endpoint.WithConsume([]mime.MIME{mime.JSON, mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(CreateEventRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(Event{}, "201", "Event created"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				errValidation,
				response.New(ErrorResponse{Code: "EVENT_CODE_CONFLICT", Message: "Could not allocate an event code"}, "409", "Conflict"),
				errInternal,
			}),
			userAuth,
		),

		// GET /v1/events
		endpoint.New(
			endpoint.GET,
			"/events",
			endpoint.WithTags("Events"),
			endpoint.WithSummary("List my events"),
			endpoint.WithDescription("Lists the events created by the caller."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EventList{}, "200", "Events"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errInternal}),
			userAuth,
		),

		// GET /v1/events/{id}
		endpoint.New(
			endpoint.GET,
			"/events/{id}",
			endpoint.WithTags("Events"),
			endpoint.WithSummary("Get an event"),
			endpoint.WithDescription("Owners and people on the access list get the full record; everyone else gets the summary."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(eventIDParam()),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(Event{}, "200", "Event"),
			}),
			endpoint.WithErrors([]response.Response{errEventMissing, errInternal}),
		),

		// DELETE /v1/events/{id}
		endpoint.New(
			endpoint.DELETE,
			"/events/{id}",
			endpoint.WithTags("Events"),
			endpoint.WithSummary("Delete an event"),
			endpoint.WithDescription("Deletes the event record. Only the owner may do this."),
			endpoint.WithParams(eventIDParam()),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Deleted"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errForbidden, errEventMissing, errInternal}),
			userAuth,
		),

		// POST /v1/events/{id}/access
		endpoint.New(
			endpoint.POST,
			"/events/{id}/access",
			endpoint.WithTags("Events"),
			endpoint.WithSummary("Grant access"),
			endpoint.WithDescription("Lets another user upload photos and view face groups."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(eventIDParam()),
			endpoint.WithBody(GrantAccessRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(Event{}, "200", "Access granted"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errForbidden, errEventMissing, errValidation, errInternal}),
			userAuth,
		),

		// POST /v1/events/{id}/images
		endpoint.New(
			endpoint.POST,
			"/events/{id}/images",
			endpoint.WithTags("Photos"),
			endpoint.WithSummary("Upload event photos"),
			endpoint.WithDescription("Stores jpg and png files sent as multipart field 'images'. Each file succeeds or fails on its own; 207 is returned when some failed."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(eventIDParam()),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(UploadReport{}, "201", "All files stored"),
				response.New(UploadReport{}, "207", "Some files stored"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				errForbidden,
				errEventMissing,
				errValidation,
				response.New(ErrorResponse{Code: "UPLOAD_FAILED", Message: "No file could be stored"}, "502", "Bad Gateway"),
			}),
			userAuth,
		),

		// POST /v1/events/{id}/matches
		endpoint.New(
			endpoint.POST,
			"/events/{id}/matches",
			endpoint.WithTags("Matches"),
			endpoint.WithSummary("Find my photos"),
			endpoint.WithDescription("Compares the caller's selfie with every photo of the event and returns the matches, strongest first. A stored result is returned without comparing again, unless the request carries a multipart 'selfie': that selfie is always compared and its result replaces the stored one. Progress is pushed over /ws as match.progress frames."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(eventIDParam()),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MatchResult{}, "200", "Matches found"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				errEventMissing,
				response.New(ErrorResponse{Code: "NO_MATCHES_FOUND", Message: "No photos of you were found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "NO_IMAGES_IN_EVENT", Message: "The event has no photos yet"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "SELFIE_REQUIRED", Message: "Upload a selfie first"}, "422", "Unprocessable Entity"),
				errRateLimited,
				response.New(ErrorResponse{Code: "MATCHING_UNAVAILABLE", Message: "Face matching is unavailable"}, "503", "Service Unavailable"),
			}),
			userAuth,
		),

		// GET /v1/events/{id}/matches
		endpoint.New(
			endpoint.GET,
			"/events/{id}/matches",
			endpoint.WithTags("Matches"),
			endpoint.WithSummary("Saved photos"),
			endpoint.WithDescription("Returns the stored result of an earlier search without comparing again."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(eventIDParam()),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MatchResult{}, "200", "Stored matches"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				errEventMissing,
				response.New(ErrorResponse{Code: "MATCH_NOT_CACHED", Message: "No stored result for this event"}, "404", "Not Found"),
			}),
			userAuth,
		),

		// GET /v1/events/{id}/groups
		endpoint.New(
			endpoint.GET,
			"/events/{id}/groups",
			endpoint.WithTags("Groups"),
			endpoint.WithSummary("Group photos by person"),
			endpoint.WithDescription("Indexes every face in the event and groups them by person. Progress is pushed over /ws as groups.progress frames."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				eventIDParam(),
				parameter.StrParam("strategy", parameter.Query, parameter.WithDescription("first-match (default) or connected")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(GroupsResponse{}, "200", "Groups built"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errForbidden, errEventMissing, errValidation, errInternal}),
			userAuth,
		),

		// PUT /v1/users/me/selfie
		endpoint.New(
			endpoint.PUT,
			"/users/me/selfie",
			endpoint.WithTags("Users"),
			endpoint.WithSummary("Replace my selfie"),
			endpoint.WithDescription("Stores the multipart 'selfie' as the caller's profile selfie. Later searches without a selfie use it."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SelfieResponse{}, "200", "Selfie stored"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				errValidation,
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or size"}, "422", "Unprocessable Entity"),
				errInternal,
			}),
			userAuth,
		),

		// GET /v1/users/me/matches
		endpoint.New(
			endpoint.GET,
			"/users/me/matches",
			endpoint.WithTags("Users"),
			endpoint.WithSummary("All my photos"),
			endpoint.WithDescription("Lists every event the caller was found in, most recent first, with the event name, cover and matched photos. Nothing is compared."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MyPhotosResponse{}, "200", "Events with matches"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errInternal}),
			userAuth,
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
