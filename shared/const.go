package shared

const (
	UserID   = "user_id"
	UserRole = "user_role"

	RoleLearner    = "learner"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"

	CurrencyUSD = "USD"

	PaymentMethodFree = "free"
)

// Domain error codes carried in AppError.Code.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeUnavailable        = "SERVICE_UNAVAILABLE"
	CodeAlreadyEnrolled    = "ALREADY_ENROLLED"
	CodeCourseUnavailable  = "COURSE_UNAVAILABLE"
	CodeNotAQuiz           = "NOT_A_QUIZ"
	CodeNotComplete        = "NOT_COMPLETE"
	CodeAlreadyIssued      = "ALREADY_ISSUED"
	CodeDuplicateOrder     = "DUPLICATE_ORDER"
	CodeSessionOpen        = "SESSION_OPEN"
	CodeAlreadySubmitted   = "ALREADY_SUBMITTED"
	CodeEnrollmentInactive = "ENROLLMENT_INACTIVE"
	CodeAttemptsExhausted  = "QUIZ_ATTEMPTS_EXHAUSTED"
	CodeNotAnAssignment    = "NOT_AN_ASSIGNMENT"
)
