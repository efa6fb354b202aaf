package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/apperr"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/auth"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/cache"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/mail"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/models"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/repository"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/response"
)

type UserHandler struct {
	users    *repository.UserRepository
	academic *repository.AcademicRepository
	authSvc  *auth.Service
	mailer   *mail.Notifier
	cache    *cache.Cache
	log      *zap.SugaredLogger
}

func NewUserHandler(users *repository.UserRepository, academic *repository.AcademicRepository, authSvc *auth.Service, mailer *mail.Notifier, store *cache.Cache, log *zap.SugaredLogger) *UserHandler {
	return &UserHandler{users: users, academic: academic, authSvc: authSvc, mailer: mailer, cache: store, log: log}
}

type registerRequest struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role"`
	Department  string `json:"department"`

	FacultyID   string `json:"facultyId"`
	Designation string `json:"designation"`
	RollNumber  string `json:"rollNumber"`
	Course      string `json:"course"`
}

func (r registerRequest) validate() []apperr.FieldError {
	var errs []apperr.FieldError
	if strings.TrimSpace(r.FullName) == "" {
		errs = append(errs, apperr.FieldError{Field: "fullName", Message: "Full name is required"})
	}
	if !strings.Contains(r.Email, "@") {
		errs = append(errs, apperr.FieldError{Field: "email", Message: "A valid email is required"})
	}
	if len(r.Password) < 8 {
		errs = append(errs, apperr.FieldError{Field: "password", Message: "Password must be at least 8 characters"})
	}
	if !models.Role(r.Role).Valid() {
		errs = append(errs, apperr.FieldError{Field: "role", Message: "Role must be admin, faculty or student"})
	}
	if r.Department == "" {
		errs = append(errs, apperr.FieldError{Field: "department", Message: "Department is required"})
	}
	switch models.Role(r.Role) {
	case models.RoleFaculty:
		if r.FacultyID == "" {
			errs = append(errs, apperr.FieldError{Field: "facultyId", Message: "Faculty ID is required"})
		}
	case models.RoleStudent:
		if r.RollNumber == "" {
			errs = append(errs, apperr.FieldError{Field: "rollNumber", Message: "Roll number is required"})
		}
		if r.Course == "" {
			errs = append(errs, apperr.FieldError{Field: "course", Message: "Course is required"})
		}
	}
	return errs
}

// Register creates an unverified account. The department must exist and a
// student's course must belong to it.
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, apperr.Validation("Invalid request body"))
	}
	if errs := req.validate(); len(errs) > 0 {
		return response.Fail(c, apperr.Validation("Validation failed", errs...))
	}

	deptID, err := primitive.ObjectIDFromHex(req.Department)
	if err != nil {
		return response.Fail(c, apperr.Validation("Invalid department id"))
	}
	if _, err := h.academic.FindDepartment(c.Context(), deptID); err != nil {
		return response.Fail(c, err)
	}

	user := &models.User{
		FullName:    strings.TrimSpace(req.FullName),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		PhoneNumber: req.PhoneNumber,
		Role:        models.Role(req.Role),
		Department:  deptID,
		FacultyID:   req.FacultyID,
		Designation: req.Designation,
		RollNumber:  req.RollNumber,
	}

	if user.Role == models.RoleStudent {
		courseID, err := primitive.ObjectIDFromHex(req.Course)
		if err != nil {
			return response.Fail(c, apperr.Validation("Invalid course id"))
		}
		ok, err := h.academic.CourseInDepartment(c.Context(), courseID, deptID)
		if err != nil {
			return response.Fail(c, err)
		}
		if !ok {
			return response.Fail(c, apperr.Validation("Course does not belong to the selected department"))
		}
		user.Associations.Courses = []primitive.ObjectID{courseID}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return response.Fail(c, err)
	}
	user.Password = hash

	if err := h.users.Create(c.Context(), user); err != nil {
		return response.Fail(c, err)
	}

	h.mailer.Welcome(user)
	h.cache.DelPattern("users")
	return response.Created(c, user.Public(), "Registration successful. Your account is pending verification")
}

// List returns a paginated user listing, optionally narrowed by role and
// department. Admin only.
func (h *UserHandler) List(c *fiber.Ctx) error {
	filter := repository.ListFilter{}
	if role := c.Query("role"); role != "" {
		if !models.Role(role).Valid() {
			return response.Fail(c, apperr.Validation("Invalid role filter"))
		}
		filter.Role = models.Role(role)
	}
	if dept := c.Query("department"); dept != "" {
		id, err := primitive.ObjectIDFromHex(dept)
		if err != nil {
			return response.Fail(c, apperr.Validation("Invalid department id"))
		}
		filter.Department = &id
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	users, total, err := h.users.List(c.Context(), filter, page, limit)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Succeed(c, fiber.Map{
		"users": users,
		"total": total,
		"page":  page,
		"limit": limit,
	}, "Users fetched")
}

// Verify marks a pending account as verified and mails the user. Admin only.
func (h *UserHandler) Verify(c *fiber.Ctx) error {
	user, err := h.findByParam(c)
	if err != nil {
		return response.Fail(c, err)
	}
	if user.IsVerified {
		return response.Fail(c, apperr.Conflict("User is already verified"))
	}
	if err := h.users.SetVerified(c.Context(), user.ID, true); err != nil {
		return response.Fail(c, err)
	}

	h.mailer.Verified(user)
	h.cache.DelPattern("users")
	return response.Succeed(c, nil, "User verified successfully")
}

// Block blocks the account, revokes its sessions and mails the user. Admin
// only.
func (h *UserHandler) Block(c *fiber.Ctx) error {
	user, err := h.findByParam(c)
	if err != nil {
		return response.Fail(c, err)
	}
	if user.IsBlocked {
		return response.Fail(c, apperr.Conflict("User is already blocked"))
	}
	if err := h.users.SetBlocked(c.Context(), user.ID, true); err != nil {
		return response.Fail(c, err)
	}
	if err := h.authSvc.RevokeAll(c.Context(), user.ID); err != nil {
		h.log.Errorw("session revocation on block failed", "userId", user.ID.Hex(), "err", err)
	}

	h.mailer.Blocked(user)
	h.cache.DelPattern("users")
	return response.Succeed(c, nil, "User blocked successfully")
}

// Unblock lifts a block and mails the user. Admin only.
func (h *UserHandler) Unblock(c *fiber.Ctx) error {
	user, err := h.findByParam(c)
	if err != nil {
		return response.Fail(c, err)
	}
	if !user.IsBlocked {
		return response.Fail(c, apperr.Conflict("User is not blocked"))
	}
	if err := h.users.SetBlocked(c.Context(), user.ID, false); err != nil {
		return response.Fail(c, err)
	}

	h.mailer.Unblocked(user)
	h.cache.DelPattern("users")
	return response.Succeed(c, nil, "User unblocked successfully")
}

func (h *UserHandler) findByParam(c *fiber.Ctx) (*models.User, error) {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return nil, apperr.Validation("Invalid user id")
	}
	return h.users.FindByID(c.Context(), id)
}
