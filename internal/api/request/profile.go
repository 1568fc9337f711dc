package request

type UpdateProfile struct {
	DisplayName string `json:"display_name" validate:"required,max=255"`
	Email       string `json:"email" validate:"required,email,max=255"`
	AvatarURL   string `json:"avatar_url" validate:"omitempty,url,max=1024"`
	Timezone    string `json:"timezone" validate:"omitempty,max=64"`
}

type ConnectIntegration struct {
	Provider string `json:"provider" validate:"required,slug,max=64"`
	Label    string `json:"label" validate:"omitempty,max=255"`
}
