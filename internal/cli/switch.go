package cli

type Switch struct {
	Branch string `arg:"" name:"branch" help:"Branch to switch to"`
}

func (s *Switch) Run(g *Globals) error {
	r, err := openRepo(g)
	if err != nil {
		die("switch: %v", err)
		return err
	}
	defer r.Close()
	return switchTo(r, s.Branch)
}
