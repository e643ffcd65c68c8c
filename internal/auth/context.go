package auth

// RecruiterContext persists a recruiter's identity and API token. Tokens are
// opaque strings handed out during onboarding; a request authenticates by
// presenting one as a bearer token.
type RecruiterContext struct {
	RecruiterID string `gorm:"type:varchar(100);column:recruiter_id;primaryKey;not null" json:"recruiterId"`
	DisplayName string `gorm:"type:varchar(255);column:display_name" json:"displayName"`
	APIToken    string `gorm:"type:varchar(255);column:api_token;uniqueIndex;not null" json:"-"`
}

func (r *RecruiterContext) TableName() string {
	return "recruiter_contexts"
}

// AuthContext is the transient per-request authentication context injected by
// the auth middleware.
type AuthContext struct {
	*RecruiterContext
}
