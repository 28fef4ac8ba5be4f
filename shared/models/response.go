package models

// ErrorResponse - тело ответа об ошибке, единое для всех HTTP-эндпоинтов.
// Клиент показывает Error как есть, без дополнительной интерпретации.
type ErrorResponse struct {
	Error string `json:"error"`
}
