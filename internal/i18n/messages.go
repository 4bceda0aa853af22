// Package i18n renders rejection reasons and API errors in the caller's
// language, negotiated from the Accept-Language header.
package i18n

import (
	"golang.org/x/text/language"

	"github.com/iliyamo/community-reservations/internal/availability"
)

// Spanish is listed first so that it wins when nothing matches.
var supported = []language.Tag{language.Spanish, language.English}

var matcher = language.NewMatcher(supported)

var reasonText = map[language.Tag]map[availability.Reason]string{
	language.Spanish: {
		availability.ReasonAreaInactive:          "El área no está disponible por el momento.",
		availability.ReasonOutsideBookingWindow:  "La fecha está fuera del periodo en que se puede reservar esta área.",
		availability.ReasonOutsideOperatingHours: "El horario solicitado está fuera del horario de operación del área.",
		availability.ReasonExceedsMaxDuration:    "La reservación excede la duración máxima permitida.",
		availability.ReasonExceedsCapacity:       "El número de personas excede la capacidad del área.",
		availability.ReasonNoSimultaneousSlot:    "Ya no hay lugar disponible en ese horario.",
	},
	language.English: {
		availability.ReasonAreaInactive:          "This area is not available right now.",
		availability.ReasonOutsideBookingWindow:  "The date is outside the period in which this area can be booked.",
		availability.ReasonOutsideOperatingHours: "The requested time is outside the area's operating hours.",
		availability.ReasonExceedsMaxDuration:    "The reservation exceeds the maximum allowed duration.",
		availability.ReasonExceedsCapacity:       "The number of people exceeds the area's capacity.",
		availability.ReasonNoSimultaneousSlot:    "There is no room left in that time range.",
	},
}

// Negotiate picks the best supported language for an Accept-Language
// header value.  Malformed or empty headers fall back to Spanish.
func Negotiate(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return supported[0]
	}
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// Reason returns the localized message for r.
func Reason(tag language.Tag, r availability.Reason) string {
	if msg, ok := reasonText[tag][r]; ok {
		return msg
	}
	if msg, ok := reasonText[supported[0]][r]; ok {
		return msg
	}
	return string(r)
}
