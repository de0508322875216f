package subsidy

import "errors"

// Caller-visible error kinds. Operations return the first failing check
// wrapped around one of these sentinels; callers match with errors.Is.
//
// ErrAppealExists covers both "appeal slot already occupied" and "appeal
// already resolved"; ErrNoAppeal covers both "no appeal found" and "appeal
// window elapsed on submission". The wrapped messages distinguish the cases
// but the error identity is shared.
var (
	ErrNotAuthorized      = errors.New("not authorized")
	ErrInvalidFarmer      = errors.New("invalid farmer")
	ErrInvalidApplication = errors.New("invalid application")
	ErrCriteriaNotMet     = errors.New("criteria not met")
	ErrOracleFailure      = errors.New("oracle failure")
	ErrAppealExists       = errors.New("appeal exists")
	ErrNoAppeal           = errors.New("no appeal")
	ErrInvalidScore       = errors.New("invalid score")
	ErrSystemPaused       = errors.New("system paused")
	ErrInvalidData        = errors.New("invalid data")
)
