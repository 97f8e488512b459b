package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// OperatorClaims — данные оператора панели клуба, записанные в токен.
// Токены выпускает внешний сервис авторизации; биллинг только проверяет их
// и пишет имя оператора в журнал изменений.
type OperatorClaims struct {
	Username string `json:"username"` // Логин оператора
	Role     string `json:"role"`     // Роль оператора (не проверяется биллингом)
	jwt.RegisteredClaims
}
