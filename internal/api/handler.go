package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"course-service/internal/apperr"
	"course-service/internal/auth"
	"course-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SignatureHeader carries the payment collaborator's webhook signature
const SignatureHeader = "X-Payment-Signature"

// Handler contains HTTP handlers
type Handler struct {
	users    *service.UserService
	courses  *service.CourseService
	checkout *service.CheckoutService
	progress *service.ProgressService
	tokens   *auth.Manager
}

// NewHandler creates a new HTTP handler
func NewHandler(
	users *service.UserService,
	courses *service.CourseService,
	checkout *service.CheckoutService,
	progress *service.ProgressService,
	tokens *auth.Manager,
) *Handler {
	return &Handler{
		users:    users,
		courses:  courses,
		checkout: checkout,
		progress: progress,
		tokens:   tokens,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		user := v1.Group("/user")
		{
			user.POST("/signup", h.signup)
			user.POST("/signin", h.signin)
			user.GET("/profile", requireAuth(h.tokens), h.profile)
			user.PATCH("/profile", requireAuth(h.tokens), h.updateProfile)
			user.PATCH("/change-password", requireAuth(h.tokens), h.changePassword)
			user.DELETE("/account", requireAuth(h.tokens), h.deleteAccount)
		}

		courses := v1.Group("/courses")
		{
			courses.GET("", h.catalog)
			courses.GET("/:id", optionalAuth(h.tokens), h.courseDetail)
			courses.POST("", requireAuth(h.tokens), h.createCourse)
			courses.PUT("/:id", requireAuth(h.tokens), h.updateCourse)
			courses.PATCH("/:id/publish", requireAuth(h.tokens), h.publishCourse)
			courses.POST("/:id/lectures", requireAuth(h.tokens), h.addLecture)
			courses.DELETE("/:id/lectures/:lectureID", requireAuth(h.tokens), h.removeLecture)
		}

		v1.GET("/instructor/courses", requireAuth(h.tokens), h.instructorCourses)

		purchases := v1.Group("/purchases")
		{
			purchases.POST("/checkout", requireAuth(h.tokens), h.initiateCheckout)
			purchases.GET("", requireAuth(h.tokens), h.listPurchases)
			purchases.POST("/confirm", h.confirmPurchase)
		}

		progress := v1.Group("/progress")
		{
			progress.GET("/:courseID", requireAuth(h.tokens), h.getProgress)
			progress.POST("/:courseID/lectures/:lectureID/complete", requireAuth(h.tokens), h.completeLecture)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// signup handles account registration
func (h *Handler) signup(c *gin.Context) {
	var req service.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}

	resp, err := h.users.Signup(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// signin handles credential login
func (h *Handler) signin(c *gin.Context) {
	var req service.SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}

	resp, err := h.users.Signin(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// profile returns the authenticated account
func (h *Handler) profile(c *gin.Context) {
	user, err := h.users.Profile(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// updateProfile edits the authenticated account
func (h *Handler) updateProfile(c *gin.Context) {
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// changePassword replaces the account password
func (h *Handler) changePassword(c *gin.Context) {
	var req service.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), currentUser(c), &req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// deleteAccount removes the authenticated account
func (h *Handler) deleteAccount(c *gin.Context) {
	var req service.DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}

	if err := h.users.DeleteAccount(c.Request.Context(), currentUser(c), &req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// catalog lists published courses
func (h *Handler) catalog(c *gin.Context) {
	courses, err := h.courses.Catalog(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// courseDetail returns one course shaped by the caller's access level
func (h *Handler) courseDetail(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.courses.Detail(c.Request.Context(), currentUser(c), courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// createCourse creates an unpublished course
func (h *Handler) createCourse(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}

	course, err := h.courses.Create(c.Request.Context(), currentUser(c), currentRole(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"course": course})
}

// updateCourse edits course fields
func (h *Handler) updateCourse(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}

	course, err := h.courses.Update(c.Request.Context(), currentUser(c), courseID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"course": course})
}

// publishCourse flips catalog visibility
func (h *Handler) publishCourse(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Published *bool `json:"published" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}

	if err := h.courses.SetPublished(c.Request.Context(), currentUser(c), courseID, *req.Published); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"published": *req.Published})
}

// addLecture appends a lecture to a course
func (h *Handler) addLecture(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req service.AddLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}

	lecture, err := h.courses.AddLecture(c.Request.Context(), currentUser(c), courseID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"lecture": lecture})
}

// removeLecture deletes a lecture from a course
func (h *Handler) removeLecture(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	lectureID, ok := pathID(c, "lectureID")
	if !ok {
		return
	}

	if err := h.courses.RemoveLecture(c.Request.Context(), currentUser(c), courseID, lectureID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// instructorCourses lists the caller's courses
func (h *Handler) instructorCourses(c *gin.Context) {
	courses, err := h.courses.InstructorCourses(c.Request.Context(), currentUser(c), currentRole(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// initiateCheckout starts a purchase attempt
func (h *Handler) initiateCheckout(c *gin.Context) {
	var req struct {
		CourseID int64 `json:"course_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}

	resp, err := h.checkout.InitiateCheckout(c.Request.Context(), currentUser(c), req.CourseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// listPurchases lists the caller's purchases
func (h *Handler) listPurchases(c *gin.Context) {
	purchases, err := h.checkout.GetPurchases(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchases": purchases})
}

// confirmPurchase handles the payment collaborator's webhook. The raw
// body is needed for signature verification, so no JSON binding here.
func (h *Handler) confirmPurchase(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, apperr.Wrap(apperr.KindBadRequest, "unreadable payload", err))
		return
	}

	purchase, err := h.checkout.ConfirmPurchase(c.Request.Context(), payload, c.GetHeader(SignatureHeader))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"purchase_id": purchase.ID,
		"status":      purchase.Status,
	})
}

// getProgress returns (lazily creating) the caller's progress record
func (h *Handler) getProgress(c *gin.Context) {
	courseID, ok := pathID(c, "courseID")
	if !ok {
		return
	}

	view, err := h.progress.GetProgress(c.Request.Context(), currentUser(c), courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// completeLecture marks a lecture complete
func (h *Handler) completeLecture(c *gin.Context) {
	courseID, ok := pathID(c, "courseID")
	if !ok {
		return
	}
	lectureID, ok := pathID(c, "lectureID")
	if !ok {
		return
	}

	view, err := h.progress.MarkLectureComplete(c.Request.Context(), currentUser(c), courseID, lectureID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperr.BadRequest("invalid "+name))
		return 0, false
	}
	return id, true
}
