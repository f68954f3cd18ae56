package api

import "github.com/evamarketing/elife/internal/services"

type authStoreAdapter struct {
	store Store
}

func newAuthStoreAdapter(store Store) services.AuthStore {
	return &authStoreAdapter{store: store}
}

func (a *authStoreAdapter) FindAdminByEmail(email string) (*services.Admin, error) {
	return a.store.FindAdminByEmail(email), nil
}

func (a *authStoreAdapter) AddAdmin(ad *services.Admin) error {
	return a.store.AddAdmin(ad)
}

var _ services.AuthStore = (*authStoreAdapter)(nil)
