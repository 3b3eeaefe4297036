package ui

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
)

// PromptText is the question asked after results are listed.
const PromptText = "Select search result (by number): "

// Prompt asks for a result number in [0, n) and reads one line from in.
func Prompt(in io.Reader, out io.Writer, n int) (int, error) {
	if n <= 0 {
		return -1, trovoerrors.New(trovoerrors.ErrCodeSelectionInvalid, "no results to select from", nil)
	}
	if _, err := fmt.Fprint(out, PromptText); err != nil {
		return -1, err
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return -1, trovoerrors.New(trovoerrors.ErrCodeSelectionInvalid, "no selection entered", err)
	}
	return ParseSelection(line, n)
}

// ParseSelection validates a typed result number against n results.
func ParseSelection(s string, n int) (int, error) {
	s = strings.TrimSpace(s)
	choice, err := strconv.Atoi(s)
	if err != nil {
		return -1, trovoerrors.New(trovoerrors.ErrCodeSelectionInvalid,
			fmt.Sprintf("%q is not a result number", s), err).
			WithSuggestion(fmt.Sprintf("Enter a number between 0 and %d", n-1))
	}
	if choice < 0 || choice >= n {
		return -1, trovoerrors.New(trovoerrors.ErrCodeSelectionInvalid,
			fmt.Sprintf("result %d is out of range", choice), nil).
			WithDetail("results", strconv.Itoa(n)).
			WithSuggestion(fmt.Sprintf("Enter a number between 0 and %d", n-1))
	}
	return choice, nil
}
