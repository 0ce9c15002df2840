package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/crm/internal/domain"
	"github.com/spec-kit/crm/internal/events"
	"github.com/spec-kit/crm/internal/repository"
	apperrors "github.com/spec-kit/crm/pkg/util"
)

// ContractService coordinates contract workflows.
type ContractService struct {
	contracts  repository.ContractRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ContractInput describes contract creation.
type ContractInput struct {
	ClientID        int64
	TotalAmount     float64
	AmountRemaining float64
	Signed          bool
}

// ContractUpdate lists the fields to change; nil fields are kept.
type ContractUpdate struct {
	TotalAmount     *float64
	AmountRemaining *float64
	Signed          *bool
}

// NewContractService constructs the service.
func NewContractService(contracts repository.ContractRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ContractService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContractService{contracts: contracts, dispatcher: dispatcher, logger: logger}
}

// Create records a contract negotiated by the calling collaborator.
func (s *ContractService) Create(ctx context.Context, callerID int64, input ContractInput) (*domain.Contract, error) {
	contract := &domain.Contract{
		ClientID:        input.ClientID,
		CommercialID:    &callerID,
		TotalAmount:     input.TotalAmount,
		AmountRemaining: input.AmountRemaining,
		Signed:          input.Signed,
	}
	if err := validateContract(contract); err != nil {
		return nil, err
	}
	if err := s.contracts.Create(ctx, contract); err != nil {
		return nil, mapRepoError(err, "contract", nil)
	}

	s.logger.Debug("contract created", zap.Int64("contract_id", contract.ID), zap.Int64("caller_id", callerID))
	payload := events.ContractPayload{
		ClientID:        contract.ClientID,
		TotalAmount:     contract.TotalAmount,
		AmountRemaining: contract.AmountRemaining,
	}
	publish(ctx, s.dispatcher, events.Event{
		Type: events.EventContractCreated, ActorID: callerID, EntityID: contract.ID, Payload: payload,
	})
	if contract.Signed {
		publish(ctx, s.dispatcher, events.Event{
			Type: events.EventContractSigned, ActorID: callerID, EntityID: contract.ID, Payload: payload,
		})
	}
	return contract, nil
}

// Get returns a contract by id.
func (s *ContractService) Get(ctx context.Context, id int64) (*domain.Contract, error) {
	contract, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "contract", id)
	}
	return contract, nil
}

// List returns contracts matching filter.
func (s *ContractService) List(ctx context.Context, filter repository.ContractFilter) ([]domain.Contract, error) {
	contracts, err := s.contracts.List(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err, "contract", nil)
	}
	return contracts, nil
}

// Update applies changes. Signing an unsigned contract emits contract_signed.
func (s *ContractService) Update(ctx context.Context, callerID, id int64, update ContractUpdate) (*domain.Contract, error) {
	contract, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	wasSigned := contract.Signed
	if update.TotalAmount != nil {
		contract.TotalAmount = *update.TotalAmount
	}
	if update.AmountRemaining != nil {
		contract.AmountRemaining = *update.AmountRemaining
	}
	if update.Signed != nil {
		contract.Signed = *update.Signed
	}
	if err := validateContract(contract); err != nil {
		return nil, err
	}
	if err := s.contracts.Update(ctx, contract); err != nil {
		return nil, mapRepoError(err, "contract", id)
	}

	s.logger.Debug("contract updated", zap.Int64("contract_id", id), zap.Int64("caller_id", callerID))
	if contract.Signed && !wasSigned {
		publish(ctx, s.dispatcher, events.Event{
			Type:     events.EventContractSigned,
			ActorID:  callerID,
			EntityID: contract.ID,
			Payload: events.ContractPayload{
				ClientID:        contract.ClientID,
				TotalAmount:     contract.TotalAmount,
				AmountRemaining: contract.AmountRemaining,
			},
		})
	}
	return contract, nil
}

// Delete removes a contract and its events.
func (s *ContractService) Delete(ctx context.Context, callerID, id int64) error {
	if err := s.contracts.Delete(ctx, id); err != nil {
		return mapRepoError(err, "contract", id)
	}
	s.logger.Debug("contract deleted", zap.Int64("contract_id", id), zap.Int64("caller_id", callerID))
	return nil
}

func validateContract(contract *domain.Contract) error {
	if contract.ClientID <= 0 {
		return apperrors.NewValidationError("client id must be a positive integer", nil)
	}
	if err := apperrors.ValidatePositive(contract.TotalAmount, "total amount"); err != nil {
		return err
	}
	if contract.AmountRemaining < 0 {
		return apperrors.NewValidationError("amount remaining must not be negative", nil)
	}
	if contract.AmountRemaining > contract.TotalAmount {
		return apperrors.NewValidationError("amount remaining cannot exceed the total amount", map[string]any{
			"total_amount":     contract.TotalAmount,
			"amount_remaining": contract.AmountRemaining,
		})
	}
	return nil
}
