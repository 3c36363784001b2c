package model

// Account учётные данные провайдера под коротким псевдонимом
type Account struct {
	Alias    string
	Username string
	Password string
}
