package tax

// Rate returns the tax rate in percent.
func Rate() int { return 20 }
