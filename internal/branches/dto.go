package branches

// BranchForm is the payload of POST /branches.
type BranchForm struct {
	Name string `json:"name" validate:"required,max=120"`
}
