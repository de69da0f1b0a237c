package auth

// Claims identifica a quien hace el request: el owner de un household o un cuidador.
// Email es informativo; permisos y grants se resuelven solo por UserID.
type Claims struct {
	UserID string
	Email  string
}
