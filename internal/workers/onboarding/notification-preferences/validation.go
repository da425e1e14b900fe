package notificationpreferences

import (
	"fmt"
	"sort"

	"erate-tracker/internal/common/validation"
	"erate-tracker/internal/models"
)

func GetInputSchema() validation.JSONSchema {
	flag := &validation.Property{Type: "boolean"}
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"categories": {
				Type:                 "object",
				AdditionalProperties: flag,
			},
			"channels": {
				Type: "object",
				Properties: map[string]validation.Property{
					models.ChannelEmail: {Type: "boolean"},
					models.ChannelPush:  {Type: "boolean"},
					models.ChannelSMS:   {Type: "boolean"},
				},
				AdditionalProperties: flag,
			},
			"frequency": {
				Type: "string",
				Enum: []string{
					string(models.FrequencyRealtime),
					string(models.FrequencyDaily),
					string(models.FrequencyWeekly),
				},
			},
		},
		AdditionalProperties: validation.Bool(false),
	}
}

// unknownKeys lists keys in the profile that the role is not offered.
func unknownKeys(role models.Role, profile models.PreferenceProfile) []string {
	allowed := make(map[string]bool)
	for _, c := range models.CommonCategories {
		allowed[c] = true
	}
	for _, c := range models.RoleCategories[role] {
		allowed[c] = true
	}

	var unknown []string
	for k := range profile.Categories {
		if !allowed[k] {
			unknown = append(unknown, fmt.Sprintf("categories.%s", k))
		}
	}
	for k := range profile.Channels {
		switch k {
		case models.ChannelEmail, models.ChannelPush, models.ChannelSMS:
		default:
			unknown = append(unknown, fmt.Sprintf("channels.%s", k))
		}
	}
	sort.Strings(unknown)
	return unknown
}
