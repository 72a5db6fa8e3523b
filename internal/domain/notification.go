package domain

import (
	"fmt"
	"time"
)

// Notification types delivered by the core.
const (
	NotificationTypeNewProperty     = "new_property"
	NotificationTypeContactUnlocked = "contact_unlocked"
)

// Payload type discriminators carried inside Notification.Data.
const (
	payloadTypeProperty = "property"
	payloadTypeUnlock   = "unlock"
)

// Notification is an append-only in-app notification. The read flag is flipped
// by the client-facing API, never by this core.
type Notification struct {
	UserID    string
	Type      string
	Title     string
	Body      string
	Data      map[string]string
	CreatedAt time.Time
	Read      bool
}

// NewPropertyNotification builds the notification sent to a user whose
// preference profile matches a freshly listed property.
func NewPropertyNotification(userID string, property Property, propertyID string, now time.Time) Notification {
	return Notification{
		UserID:    userID,
		Type:      NotificationTypeNewProperty,
		Title:     "New Property Available!",
		Body:      fmt.Sprintf("%s in %s", property.Title, property.Location.Address),
		Data:      NewPropertyPayload{PropertyID: propertyID}.Encode(),
		CreatedAt: now,
	}
}

// ContactUnlockedNotification builds the notification sent to a property owner
// when a user pays to unlock their contact details.
func ContactUnlockedNotification(ownerID string, property Property, interestedUserID string, now time.Time) Notification {
	return Notification{
		UserID:    ownerID,
		Type:      NotificationTypeContactUnlocked,
		Title:     "Someone unlocked your contact!",
		Body:      fmt.Sprintf("A user is interested in %s", property.Title),
		Data:      ContactUnlockedPayload{PropertyID: property.ID, InterestedUserID: interestedUserID}.Encode(),
		CreatedAt: now,
	}
}

// NewPropertyPayload is the data payload attached to new_property notifications.
type NewPropertyPayload struct {
	PropertyID string
}

// Encode flattens the payload into the string map pushed to devices.
func (p NewPropertyPayload) Encode() map[string]string {
	return map[string]string{
		"propertyId": p.PropertyID,
		"type":       payloadTypeProperty,
	}
}

// ContactUnlockedPayload is the data payload attached to contact_unlocked
// notifications.
type ContactUnlockedPayload struct {
	PropertyID       string
	InterestedUserID string
}

// Encode flattens the payload into the string map pushed to devices.
func (p ContactUnlockedPayload) Encode() map[string]string {
	return map[string]string{
		"propertyId":       p.PropertyID,
		"interestedUserId": p.InterestedUserID,
		"type":             payloadTypeUnlock,
	}
}
