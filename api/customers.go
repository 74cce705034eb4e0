package api

import (
	"errors"
	"net/http"

	"backend_stm/models"
	"backend_stm/services"

	"github.com/gin-gonic/gin"
)

// GetCustomers lists customers, optionally filtered by name.
func (h *Handler) GetCustomers(c *gin.Context) {
	customers, err := services.NewCustomerService(h.db).ListCustomers(c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Unable to load customers: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": customers})
}

// CreateCustomer adds a new customer.
func (h *Handler) CreateCustomer(c *gin.Context) {
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid customer payload: " + err.Error()})
		return
	}
	if customer.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Customer name is required"})
		return
	}
	if err := services.NewCustomerService(h.db).CreateCustomer(&customer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": customer})
}

// UpdateCustomer saves the contact fields of a customer.
func (h *Handler) UpdateCustomer(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid customer payload: " + err.Error()})
		return
	}
	customer.ID = id
	if err := services.NewCustomerService(h.db).UpdateCustomer(&customer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": customer})
}

// DeleteCustomer removes a customer. A customer that still owns devices is
// protected: the violation comes back as a message, not a crash.
func (h *Handler) DeleteCustomer(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	err := services.NewCustomerService(h.db).DeleteCustomer(id)
	if errors.Is(err, services.ErrCustomerHasDevices) {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "error": "Cannot delete: the customer has associated devices"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// GetCustomerVerifications lists every verification of a customer's devices.
func (h *Handler) GetCustomerVerifications(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	rows, err := services.NewVerificationService(h.db).ListForCustomer(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": rows})
}
