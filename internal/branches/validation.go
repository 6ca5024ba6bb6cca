package branches

import (
	"strings"

	"github.com/alumnihub/alumnihub/internal/platform/validate"
)

func (s *Service) validate(form *BranchForm) error {
	form.Name = strings.Join(strings.Fields(form.Name), " ")
	return validate.Struct(form)
}
