package api

import (
	"fmt"
	"net/url"
)

const (
	pathLogin          = "/auth/login"
	pathLogout         = "/auth/logout"
	pathMe             = "/auth/me"
	pathRegister       = "/users/create"
	pathForgotPassword = "/auth/forgot-password"
	pathResetPassword  = "/auth/reset-password"
	pathSurveys        = "/surveys"
	pathAdminSurveys   = "/surveys/admin"
)

func validateResetPath(token string) string {
	return "/auth/reset-password/validate/" + url.PathEscape(token)
}

func surveyPath(id int64) string         { return fmt.Sprintf("/surveys/%d", id) }
func surveyResultsPath(id int64) string  { return fmt.Sprintf("/surveys/%d/results", id) }
func publicSurveyPath(id int64) string   { return fmt.Sprintf("/public/surveys/%d", id) }
func publicResponsePath(id int64) string { return fmt.Sprintf("/public/surveys/%d/responses", id) }
func surveyResponsesPath(id int64) string {
	return fmt.Sprintf("/responses/survey/%d", id)
}
