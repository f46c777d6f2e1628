package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/examadmin/internal/app/controllers"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/middleware"
)

// Controllers groups every HTTP handler set
type Controllers struct {
	Auth          *controllers.AuthController
	Users         *controllers.UserController
	Students      *controllers.StudentController
	Courses       *controllers.CourseController
	Exams         *controllers.ExamController
	Registrations *controllers.RegistrationController
	Health        *controllers.HealthController
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	ctrl Controllers,
	authMiddleware *middleware.AuthMiddleware,
	sensitive gin.HandlerFunc,
) {
	v1 := router.Group("/api/v1")

	v1.GET("/health", ctrl.Health.Health)

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/login", sensitive, ctrl.Auth.Login)
		auth.POST("/refresh", ctrl.Auth.RefreshToken)
		auth.POST("/password-reset/request", sensitive, ctrl.Auth.RequestPasswordReset)
		auth.POST("/password-reset/confirm", sensitive, ctrl.Auth.ConfirmPasswordReset)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	admin := authenticated.Group("")
	admin.Use(authMiddleware.RoleRequired(models.RoleAdministrator))

	staffOrAdmin := authenticated.Group("")
	staffOrAdmin.Use(authMiddleware.RoleRequired(models.RoleStaff, models.RoleAdministrator))

	// Users
	authenticated.GET("/users/me", ctrl.Users.GetMyProfile)
	users := admin.Group("/users")
	{
		users.GET("", ctrl.Users.ListUsers)
		users.GET("/staff", ctrl.Users.ListStaff)
		users.GET("/students", ctrl.Users.ListStudents)
		users.GET("/export", ctrl.Users.ExportUsers)
		users.POST("/import", ctrl.Users.ImportUsers)
		users.POST("", ctrl.Users.CreateUser)
		users.GET("/:id", ctrl.Users.GetUserByID)
		users.PUT("/:id", ctrl.Users.UpdateUser)
		users.DELETE("/:id", ctrl.Users.DeleteUser)
		users.GET("/:id/assigned-courses", ctrl.Users.GetAssignedCourses)
	}

	// Students
	students := admin.Group("/students")
	{
		students.GET("", ctrl.Students.List)
		students.POST("", ctrl.Students.Create)
		students.GET("/index/:index", ctrl.Students.GetByIndex)
		students.GET("/:id", ctrl.Students.Get)
		students.PUT("/:id", ctrl.Students.Update)
		students.DELETE("/:id", ctrl.Students.Delete)
		students.DELETE("/:id/with-user", ctrl.Students.DeleteWithUser)
		students.GET("/:id/exam-registrations", ctrl.Students.ExamRegistrations)
		students.GET("/:id/course-enrollments", ctrl.Students.CourseEnrollments)
	}

	// Courses
	authenticated.GET("/courses", ctrl.Courses.List)
	authenticated.GET("/courses/:id", ctrl.Courses.Get)
	courseStaff := staffOrAdmin.Group("/courses/:id")
	{
		courseStaff.GET("/enrolled-students", ctrl.Courses.EnrolledStudents)
		courseStaff.GET("/assigned-staff", ctrl.Courses.AssignedStaff)
		courseStaff.GET("/export", ctrl.Courses.ExportRoster)
		courseStaff.POST("/import", ctrl.Courses.ImportRoster)
	}
	courses := admin.Group("/courses")
	{
		courses.POST("", ctrl.Courses.Create)
		courses.PUT("/:id", ctrl.Courses.Update)
		courses.DELETE("/:id", ctrl.Courses.Delete)
		courses.DELETE("/:id/enrollments/:enrollmentId", ctrl.Courses.RemoveEnrollment)
		courses.DELETE("/:id/assignments/:assignmentId", ctrl.Courses.RemoveAssignment)
	}

	// Exams
	authenticated.GET("/exams", ctrl.Exams.List)
	authenticated.GET("/exams/mine", ctrl.Exams.Mine)
	authenticated.GET("/exams/:id", ctrl.Exams.Get)
	authenticated.POST("/exams/:id/register",
		authMiddleware.RoleRequired(models.RoleStudent), ctrl.Exams.Register)
	examStaff := staffOrAdmin.Group("/exams/:id")
	{
		examStaff.GET("/registered-students", ctrl.Exams.RegisteredStudents)
		examStaff.GET("/registered-students/export", ctrl.Exams.ExportRegisteredStudents)
		examStaff.GET("/attended-students", ctrl.Exams.AttendedStudents)
		examStaff.GET("/attended-students/export", ctrl.Exams.ExportAttendedStudents)
		examStaff.POST("/attended-students/import", ctrl.Exams.ImportAttendance)
		examStaff.GET("/absent-students", ctrl.Exams.AbsentStudents)
		examStaff.GET("/absent-students/export", ctrl.Exams.ExportAbsentStudents)
	}
	exams := admin.Group("/exams")
	{
		exams.POST("", ctrl.Exams.Create)
		exams.PUT("/:id", ctrl.Exams.Update)
		exams.DELETE("/:id", ctrl.Exams.Delete)
	}

	// Registrations
	registrations := admin.Group("/registrations")
	{
		registrations.GET("", ctrl.Registrations.List)
		registrations.POST("", ctrl.Registrations.Create)
		registrations.GET("/:id", ctrl.Registrations.Get)
		registrations.PUT("/:id", ctrl.Registrations.Update)
		registrations.DELETE("/:id", ctrl.Registrations.Delete)
	}
}
