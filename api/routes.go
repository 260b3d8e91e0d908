package api

import (
	"fmt"
	"net/url"
	"strconv"
)

// Endpoint path constants, relative to the configured base URL.
// All application endpoints are defined here to ensure consistency and prevent typos
const (
	// Accounts
	RouteAuthToken   = "/auth/token/"
	RouteUsersCreate = "/users/create/"
	RouteUsersMe     = "/users/me"
	RouteUsersUpdate = "/users/me/update/"
	RouteUsersDelete = "/users/me/delete/"

	// Appeals
	RouteAppealsCreate     = "/appeals/create/"
	RouteAppealsCategories = "/appeals/category/list"
	RouteAppealsMine       = "/appeals/me"
	RouteAppealsDetail     = "/appeals"

	// Notifications
	RouteNotificationsList   = "/notifications/list"
	RouteNotificationsDetail = "/notifications"

	// Ratings (/responses/{id}/rate/)
	RouteResponses = "/responses"
)

// AppealDetailPath returns /appeals/{id}
func AppealDetailPath(id int) string {
	return fmt.Sprintf("%s/%d", RouteAppealsDetail, id)
}

// NotificationDetailPath returns /notifications/{id}
func NotificationDetailPath(id int) string {
	return fmt.Sprintf("%s/%d", RouteNotificationsDetail, id)
}

// RateResponsePath returns /responses/{id}/rate/ used to submit a rating
func RateResponsePath(responseID int) string {
	return fmt.Sprintf("%s/%d/rate/", RouteResponses, responseID)
}

// UpdateRatingPath returns /responses/{id}/rate used to replace an existing rating
func UpdateRatingPath(responseID int) string {
	return fmt.Sprintf("%s/%d/rate", RouteResponses, responseID)
}

// ResponseRatingPath returns /responses/{id}/rating/
func ResponseRatingPath(responseID int) string {
	return fmt.Sprintf("%s/%d/rating/", RouteResponses, responseID)
}

// PageQuery builds the limit/offset query of paginated endpoints
func PageQuery(limit, offset int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return q
}
