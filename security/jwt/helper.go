package jwt

import "time"

// getPayload extracts payload from token claims
func getPayload(claims map[string]any) (map[string]any, bool) {
	if payload, ok := claims["payload"].(map[string]any); ok {
		return payload, true
	}
	return nil, false
}

// getString safely extracts string value from payload
func getString(payload map[string]any, key string) string {
	if val, ok := payload[key].(string); ok {
		return val
	}
	return ""
}

// getInt safely extracts an integer that may have been decoded as float64
func getInt(payload map[string]any, key string) int {
	switch val := payload[key].(type) {
	case float64:
		return int(val)
	case int:
		return val
	case int64:
		return int(val)
	}
	return 0
}

// getStringSlice safely extracts string slice from payload
func getStringSlice(payload map[string]any, key string) []string {
	switch val := payload[key].(type) {
	case []any:
		result := make([]string, 0, len(val))
		for _, item := range val {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	case []string:
		return val
	case string:
		if val != "" {
			return []string{val}
		}
	}
	return []string{}
}

// GetSubjectFromToken extracts subject (sub) from token claims
func GetSubjectFromToken(claims map[string]any) string {
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}

// GetExpirationFromToken extracts expiration time from token claims
func GetExpirationFromToken(claims map[string]any) time.Time {
	if exp, ok := claims["exp"].(float64); ok && exp > 0 {
		return time.Unix(int64(exp), 0)
	}
	return time.Time{}
}

// GetUserIDFromToken extracts user ID from token claims, falling back to the subject.
func GetUserIDFromToken(claims map[string]any) string {
	if payload, ok := getPayload(claims); ok {
		if uid := getString(payload, KeyUserID); uid != "" {
			return uid
		}
	}
	return GetSubjectFromToken(claims)
}

// GetRolesFromToken extracts roles from token claims
func GetRolesFromToken(claims map[string]any) []string {
	if payload, ok := getPayload(claims); ok {
		return getStringSlice(payload, KeyRoles)
	}
	return []string{}
}

// GetTenantIDFromToken extracts tenant ID from token claims
func GetTenantIDFromToken(claims map[string]any) string {
	if payload, ok := getPayload(claims); ok {
		return getString(payload, KeyTenantID)
	}
	return ""
}

// GetDepartmentFromToken extracts department from token claims
func GetDepartmentFromToken(claims map[string]any) string {
	if payload, ok := getPayload(claims); ok {
		return getString(payload, KeyDepartment)
	}
	return ""
}

// GetDisplayNameFromToken extracts display name from token claims
func GetDisplayNameFromToken(claims map[string]any) string {
	if payload, ok := getPayload(claims); ok {
		return getString(payload, KeyDisplayName)
	}
	return ""
}

// GetAvatarFromToken extracts avatar url from token claims
func GetAvatarFromToken(claims map[string]any) string {
	if payload, ok := getPayload(claims); ok {
		return getString(payload, KeyAvatar)
	}
	return ""
}

// GetYearFromToken extracts study year from token claims
func GetYearFromToken(claims map[string]any) int {
	if payload, ok := getPayload(claims); ok {
		return getInt(payload, KeyYear)
	}
	return 0
}
