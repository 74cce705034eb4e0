package services

import (
	"errors"
	"fmt"
	"log"

	"backend_stm/models"

	"gorm.io/gorm"
)

// ErrCustomerHasDevices is returned when a delete is refused because the
// customer still owns devices. Callers surface it as a user-facing message.
var ErrCustomerHasDevices = errors.New("customer still owns devices")

// CustomerService implements the customer side of the persistence layer.
type CustomerService struct {
	db *gorm.DB
}

// NewCustomerService creates a new CustomerService.
func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{db: db}
}

// CreateCustomer inserts a new customer.
func (cs *CustomerService) CreateCustomer(customer *models.Customer) error {
	if err := cs.db.Create(customer).Error; err != nil {
		return fmt.Errorf("unable to create customer: %w", err)
	}
	log.Printf("Customer added: %s", customer.Name)
	return nil
}

// UpdateCustomer saves the contact fields of an existing customer.
func (cs *CustomerService) UpdateCustomer(customer *models.Customer) error {
	if err := cs.db.Model(&models.Customer{ID: customer.ID}).Updates(map[string]interface{}{
		"name":    customer.Name,
		"address": customer.Address,
		"phone":   customer.Phone,
		"email":   customer.Email,
	}).Error; err != nil {
		return fmt.Errorf("unable to update customer %d: %w", customer.ID, err)
	}
	return nil
}

// DeleteCustomer removes a customer. The delete is refused with
// ErrCustomerHasDevices while any device still references the customer.
func (cs *CustomerService) DeleteCustomer(id uint) error {
	var devices int64
	if err := cs.db.Model(&models.Device{}).Where("customer_id = ?", id).Count(&devices).Error; err != nil {
		return fmt.Errorf("unable to count devices for customer %d: %w", id, err)
	}
	if devices > 0 {
		return ErrCustomerHasDevices
	}
	if err := cs.db.Delete(&models.Customer{}, id).Error; err != nil {
		return fmt.Errorf("unable to delete customer %d: %w", id, err)
	}
	log.Printf("Customer %d deleted", id)
	return nil
}

// GetCustomer returns one customer by id.
func (cs *CustomerService) GetCustomer(id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := cs.db.First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// ListCustomers returns all customers ordered by name, optionally filtered
// by a name substring.
func (cs *CustomerService) ListCustomers(search string) ([]models.Customer, error) {
	query := cs.db.Model(&models.Customer{})
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	var customers []models.Customer
	if err := query.Order("name").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// AddOrGetCustomer resolves a customer by exact name, creating it when
// absent. A name collision returns the existing id untouched: the stored
// address is never updated from the incoming one. The created flag feeds the
// archive-import report.
func (cs *CustomerService) AddOrGetCustomer(name, address string) (uint, bool, error) {
	var customer models.Customer
	err := cs.db.Where("name = ?", name).First(&customer).Error
	if err == nil {
		return customer.ID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, err
	}

	customer = models.Customer{Name: name, Address: address}
	if err := cs.db.Create(&customer).Error; err != nil {
		return 0, false, fmt.Errorf("unable to create customer %q: %w", name, err)
	}
	return customer.ID, true, nil
}

// CountDevices reports how many devices a customer owns.
func (cs *CustomerService) CountDevices(customerID uint) (int64, error) {
	var count int64
	err := cs.db.Model(&models.Device{}).Where("customer_id = ?", customerID).Count(&count).Error
	return count, err
}
