package queries

// LocateSyntaxError exposes the error locator to the external tests.
func LocateSyntaxError(text string) error {
	if err := locateSyntaxError("", text); err != nil {
		return err
	}

	return nil
}
