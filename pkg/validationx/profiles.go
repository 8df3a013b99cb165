package validationx

import (
	"github.com/ARUMANDESU/validation"
	"github.com/ARUMANDESU/validation/is"
)

var (
	ActorEmailRules = []validation.Rule{
		validation.Required,
		is.EmailFormat,
		validation.Length(5, 255),
	}

	ReasonRules = []validation.Rule{
		validation.Length(0, 1000),
	}
)
