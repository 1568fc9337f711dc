package request

type CreateAPIToken struct {
	Name      string   `json:"name" validate:"required,max=255"`
	Scopes    []string `json:"scopes" validate:"omitempty,dive,max=64"`
	ExpiresIn int      `json:"expires_in_days" validate:"omitempty,min=1,max=3650"`
}
