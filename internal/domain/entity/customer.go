package entity

// Customer representa un cliente del negocio.
type Customer struct {
	Meta
	Name     string
	Email    string
	Phone    string
	Document string // CPF/CNPJ, cédula o NIT según el país
	Address  string
	City     string
	State    string
	ZipCode  string
}
