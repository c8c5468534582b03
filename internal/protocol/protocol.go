// Package protocol holds the fixed values of the X web client's
// transaction-id scheme. They are observed from the site's scripts and
// must match it byte for byte; none of them are tunable.
package protocol

import "time"

const (
	// Keyword is appended to the signature text before hashing.
	Keyword = "obfiowerehiring"
	// MarkerByte terminates the plaintext token payload.
	MarkerByte byte = 3
	// EpochOffset is the reference instant (seconds since Unix epoch)
	// that token timestamps count from.
	EpochOffset int64 = 1682924400
	// HashPrefixLen is how many SHA-256 bytes end up in the token.
	HashPrefixLen = 16

	// TotalTime is the animation duration the frame time is normalized by.
	TotalTime = 4096.0
	// FrameTimeStep is the granularity the frame time is rounded to.
	FrameTimeStep = 10.0
	// BezierTolerance is the accepted x-error of the bezier bisection.
	BezierTolerance = 1e-5
	// FrameCount is the number of loading animations the frame is picked from.
	FrameCount = 4
	// FrameKeyByte is the KeyBytes position that selects the frame.
	FrameKeyByte = 5
	// PathPrefixLen is the length of the "M x,y ..." command prefix that
	// precedes the first curve segment of a frame path.
	PathPrefixLen = 9
	// MinFrameRow is the shortest usable frame row: 6 color values,
	// 1 rotation value and 4 curve controls.
	MinFrameRow = 11
)

const (
	VerificationKeySelector = "[name='twitter-site-verification']"
	FrameSelector           = "[id^='loading-x-anim']"

	HomeURL           = "https://x.com"
	MigrateFormAction = "https://x.com/x/migrate"
	OnDemandURLFormat = "https://abs.twimg.com/responsive-web/client-web/ondemand.s.%sa.js"
)

// SessionTTL is how long a derived session is reused before the home
// page is fetched again.
const SessionTTL = 1 * time.Hour
