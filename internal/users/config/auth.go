package config

// AuthConfig содержит параметры проверки bearer-токенов провайдера.
type AuthConfig struct {
	SecretKey  string `yaml:"secret_key" env:"USERS_AUTH_JWT_SECRET_KEY" env-default:"super-secret-key-change-me-in-production"`
	Issuer     string `yaml:"issuer" env:"USERS_AUTH_JWT_ISSUER" env-default:""`
	RolesClaim string `yaml:"roles_claim" env:"USERS_AUTH_ROLES_CLAIM" env-default:"roles"`
	AdminRole  string `yaml:"admin_role" env:"USERS_AUTH_ADMIN_ROLE" env-default:"ROLE_ADMIN"`
	LeewaySecs int    `yaml:"leeway_seconds" env:"USERS_AUTH_LEEWAY_SECONDS" env-default:"30"`
}
