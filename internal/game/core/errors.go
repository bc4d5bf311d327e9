package core

import "errors"

// Messages are shown to players as-is.
var (
	ErrInsufficientResources = errors.New("недостатньо ресурсів")
	ErrBuildInProgress       = errors.New("будівництво вже триває")
	ErrResearchInProgress    = errors.New("вже йде дослідження")
	ErrAlreadyResearched     = errors.New("науку вже вивчено")
	ErrPrerequisitesMissing  = errors.New("спочатку вивчіть попередні науки")
	ErrMaxLevel              = errors.New("досягнуто максимального рівня")
	ErrNotFound              = errors.New("не знайдено")
	ErrNotAuthorized         = errors.New("недостатньо прав")
	ErrNotReady              = errors.New("ще не готово")
	ErrInvalidState          = errors.New("дія недоступна в поточному стані")
	ErrInvalidInput          = errors.New("некоректні дані")
	ErrNoFreeWorkers         = errors.New("немає вільних робітників")
	ErrNoWorkerSlots         = errors.New("немає вільних місць для робітників")
	ErrBuildingNotBuilt      = errors.New("будівлю ще не збудовано")
	ErrCellOccupied          = errors.New("клітинка зайнята")
	ErrInvalidCell           = errors.New("некоректна клітинка")
	ErrDomainOwned           = errors.New("територія вже має власника")
	ErrDomainLimit           = errors.New("досягнуто ліміту територій")
	ErrAlreadyClaimed        = errors.New("нагороду вже отримано")
	ErrAlreadySubmitted      = errors.New("відповідь вже надіслано")
	ErrAlreadyResponded      = errors.New("ви вже пройшли це опитування")
	ErrDeadlinePassed        = errors.New("термін виконання минув")
	ErrLocked                = errors.New("ще не розблоковано")
)
