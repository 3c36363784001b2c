// Package medicover клиент портала Medicover: вход через OIDC, поиск,
// бронирование и отмена визитов от имени нескольких аккаунтов.
package medicover

import "strings"

// Endpoints адреса сервисов провайдера
type Endpoints struct {
	LoginURL     string
	OIDCRedirect string
	VersionURL   string
	APIBase      string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		LoginURL:     "https://login-online24.medicover.pl",
		OIDCRedirect: "https://online24.medicover.pl/signin-oidc",
		VersionURL:   "https://online24.medicover.pl/env-config.js",
		APIBase:      "https://api-gateway-online24.medicover.pl",
	}
}

func (e Endpoints) api(path string) string {
	return strings.TrimRight(e.APIBase, "/") + path
}

func (e Endpoints) login(path string) string {
	return strings.TrimRight(e.LoginURL, "/") + path
}

func (e Endpoints) slotsURL() string {
	return e.api("/appointments/api/search-appointments/slots")
}

func (e Endpoints) filtersURL() string {
	return e.api("/appointments/api/search-appointments/filters")
}

func (e Endpoints) bookURL() string {
	return e.api("/appointments/api/search-appointments/book-appointment")
}

func (e Endpoints) pricesURL() string {
	return e.api("/payment-gateway/api/v1/visit-prices")
}

func (e Endpoints) plannedURL() string {
	return e.api("/appointments/api/person-appointments/appointments?AppointmentState=Planned&Page=1&PageSize=20")
}

func (e Endpoints) cancelURL(id string) string {
	return e.api("/appointments/api/person-appointments/appointments/" + id)
}
