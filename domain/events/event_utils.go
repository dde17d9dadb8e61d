package events

import "reflect"

// ExtractRoomID reads the RoomID field of an event, or "" when it has none.
func ExtractRoomID(event Event) string {
	return stringField(event, "RoomID")
}

// ExtractPlayerID reads the PlayerID field of an event, or "" when it has none.
func ExtractPlayerID(event Event) string {
	return stringField(event, "PlayerID")
}

func stringField(event Event, name string) string {
	val := reflect.ValueOf(event)

	// If it's a pointer, get the underlying element
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return ""
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return ""
	}

	field := val.FieldByName(name)
	if field.IsValid() && field.Kind() == reflect.String {
		return field.String()
	}

	return ""
}
