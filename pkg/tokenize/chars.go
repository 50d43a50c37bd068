package tokenize

// IsDigit reports whether c is an ASCII digit.
func IsDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// IsLetter reports whether c is an ASCII letter.
func IsLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsLetterOrDigit reports whether c is an ASCII letter or digit.
func IsLetterOrDigit(c byte) bool {
	return IsLetter(c) || IsDigit(c)
}

// onlyLettersOrDigits reports whether the n bytes of s starting at from are all
// letters or digits. A window outside s reports false.
func onlyLettersOrDigits(s string, n, from int) bool {
	if from < 0 || n < 0 || from+n > len(s) {
		return false
	}
	for i := from; i < from+n; i++ {
		if !IsLetterOrDigit(s[i]) {
			return false
		}
	}
	return true
}
