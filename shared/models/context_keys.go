package models

// Ключи контекста Gin, устанавливаемые middleware аутентификации.
const (
	// ContextKeyUserID - идентификатор участника из валидированного JWT ("sub").
	ContextKeyUserID = "userID"
)
