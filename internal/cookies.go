package internal

const (
	COOKIE_ACCESS_TOKEN_NAME = "urdf_access_token"
	COOKIE_REDIRECT_NAME     = "urdf_redirect"
	COOKIE_APPLY_RECEIPT     = "urdf_apply_receipt"
)
