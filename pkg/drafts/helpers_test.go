package drafts

import "io"

type nopViews struct{}

func (nopViews) Render(string, any, ...io.Writer) (string, error) { return "", nil }
