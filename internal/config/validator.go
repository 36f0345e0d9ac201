package config

import (
	"github.com/go-playground/validator/v10"

	"NovaTalkAPI/internal/entity"
)

func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("chat_type", validateChatType)
	_ = v.RegisterValidation("invite_action", validateInviteAction)
	_ = v.RegisterValidation("timezone_mode", validateTimezoneMode)
	_ = v.RegisterValidation("datetime_format", validateDatetimeFormat)
	return v
}

func validateChatType(fl validator.FieldLevel) bool {
	t := fl.Field().String()
	return t == "" || t == "direct" || t == "group"
}

func validateInviteAction(fl validator.FieldLevel) bool {
	action := fl.Field().String()
	return action == "accept" || action == "decline"
}

func validateTimezoneMode(fl validator.FieldLevel) bool {
	mode := fl.Field().String()
	return mode == entity.TimezoneModeSystem || mode == entity.TimezoneModeCustom
}

func validateDatetimeFormat(fl validator.FieldLevel) bool {
	return entity.AllowedDatetimeFormats[fl.Field().String()]
}
