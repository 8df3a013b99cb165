package builders

type Factory struct {
	Registration *RegistrationFactory
}

func NewFactory() *Factory {
	return &Factory{
		Registration: &RegistrationFactory{},
	}
}
