package migrate

import (
	"context"

	"marketplace-service/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrateOptions struct {
	CreateExtensions       bool // pgcrypto
	CreateChecks           bool // CHECK-constraint для целостности
	CreateIndexes          bool // индексы и UNIQUE
	CreateFKsViaSQL        bool // FK через SQL (поверх GORM-constraint)
	CreateUpdatedAtTrigger bool // триггер обновления updated_at
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateExtensions:       true,
		CreateChecks:           true,
		CreateIndexes:          true,
		CreateFKsViaSQL:        true,
		CreateUpdatedAtTrigger: true,
	}
}

type step struct {
	name string
	sql  string
}

func run(ctx context.Context, db *gorm.DB, log *zap.Logger, steps []step) error {
	for _, s := range steps {
		if err := db.WithContext(ctx).Exec(s.sql).Error; err != nil {
			log.Error("Шаг миграции завершился ошибкой", zap.String("step", s.name), zap.Error(err))
			return err
		}
		log.Debug("Шаг миграции выполнен", zap.String("step", s.name))
	}
	return nil
}

var updatedAtTriggers = []step{
	{"fn_set_updated_at", `
CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql;
`},
	{"trg_users_updated", `
DROP TRIGGER IF EXISTS trg_users_updated ON users;
CREATE TRIGGER trg_users_updated
BEFORE UPDATE ON users
FOR EACH ROW EXECUTE FUNCTION set_updated_at();
`},
	{"trg_products_updated", `
DROP TRIGGER IF EXISTS trg_products_updated ON products;
CREATE TRIGGER trg_products_updated
BEFORE UPDATE ON products
FOR EACH ROW EXECUTE FUNCTION set_updated_at();
`},
	{"trg_orders_updated", `
DROP TRIGGER IF EXISTS trg_orders_updated ON orders;
CREATE TRIGGER trg_orders_updated
BEFORE UPDATE ON orders
FOR EACH ROW EXECUTE FUNCTION set_updated_at();
`},
}

var checks = []step{
	// OWNER/STAFF всегда с магазином, CUSTOMER всегда без
	{"chk_users_role_allowed", `
ALTER TABLE users
  DROP CONSTRAINT IF EXISTS chk_users_role_allowed;
ALTER TABLE users
  ADD CONSTRAINT chk_users_role_allowed
  CHECK (role IN ('OWNER','STAFF','CUSTOMER'));
`},
	{"chk_users_role_tenant", `
ALTER TABLE users
  DROP CONSTRAINT IF EXISTS chk_users_role_tenant;
ALTER TABLE users
  ADD CONSTRAINT chk_users_role_tenant
  CHECK ((role = 'CUSTOMER' AND tenant_id IS NULL) OR (role IN ('OWNER','STAFF') AND tenant_id IS NOT NULL));
`},
	{"chk_products_stock_non_negative", `
ALTER TABLE products
  DROP CONSTRAINT IF EXISTS chk_products_stock_non_negative;
ALTER TABLE products
  ADD CONSTRAINT chk_products_stock_non_negative
  CHECK (stock >= 0);
`},
	{"chk_products_price_non_negative", `
ALTER TABLE products
  DROP CONSTRAINT IF EXISTS chk_products_price_non_negative;
ALTER TABLE products
  ADD CONSTRAINT chk_products_price_non_negative
  CHECK (price >= 0);
`},
	{"chk_orders_status_allowed", `
ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS chk_orders_status_allowed;
ALTER TABLE orders
  ADD CONSTRAINT chk_orders_status_allowed
  CHECK (status IN ('PENDING','PAID','SHIPPED','COMPLETED','CANCELLED'));
`},
	{"chk_orders_total_non_negative", `
ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS chk_orders_total_non_negative;
ALTER TABLE orders
  ADD CONSTRAINT chk_orders_total_non_negative
  CHECK (total_amount >= 0);
`},
	{"chk_order_items_quantity_gt_zero", `
ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS chk_order_items_quantity_gt_zero;
ALTER TABLE order_items
  ADD CONSTRAINT chk_order_items_quantity_gt_zero
  CHECK (quantity > 0);
`},
	{"chk_order_items_price_non_negative", `
ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS chk_order_items_price_non_negative;
ALTER TABLE order_items
  ADD CONSTRAINT chk_order_items_price_non_negative
  CHECK (price >= 0);
`},
}

var indexes = []step{
	{"ux_users_email_lower", `
CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email_lower
ON users (lower(email));
`},
	// выборки каталога и заказов магазина по дате
	{"ix_products_tenant_created", `
CREATE INDEX IF NOT EXISTS ix_products_tenant_created
ON products (tenant_id, created_at DESC, id DESC);
`},
	{"ix_orders_tenant_created", `
CREATE INDEX IF NOT EXISTS ix_orders_tenant_created
ON orders (tenant_id, created_at DESC, id DESC);
`},
	{"ix_orders_customer_created", `
CREATE INDEX IF NOT EXISTS ix_orders_customer_created
ON orders (customer_id, created_at DESC, id DESC);
`},
}

var foreignKeys = []step{
	{"fk_users_tenant", `
ALTER TABLE users
  DROP CONSTRAINT IF EXISTS fk_users_tenant,
  ADD CONSTRAINT fk_users_tenant
    FOREIGN KEY (tenant_id) REFERENCES tenants(id) ON DELETE CASCADE;
`},
	{"fk_products_tenant", `
ALTER TABLE products
  DROP CONSTRAINT IF EXISTS fk_products_tenant,
  ADD CONSTRAINT fk_products_tenant
    FOREIGN KEY (tenant_id) REFERENCES tenants(id) ON DELETE CASCADE;
`},
	{"fk_orders_tenant", `
ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS fk_orders_tenant,
  ADD CONSTRAINT fk_orders_tenant
    FOREIGN KEY (tenant_id) REFERENCES tenants(id) ON DELETE CASCADE;
`},
	{"fk_orders_customer", `
ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS fk_orders_customer,
  ADD CONSTRAINT fk_orders_customer
    FOREIGN KEY (customer_id) REFERENCES users(id) ON DELETE CASCADE;
`},
	{"fk_order_items_order", `
ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS fk_order_items_order,
  ADD CONSTRAINT fk_order_items_order
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE;
`},
	// товар с историей заказов не удаляется; проверка в конце statement, после каскада от tenants
	{"fk_order_items_product", `
ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS fk_order_items_product,
  ADD CONSTRAINT fk_order_items_product
    FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE NO ACTION;
`},
}

func MigrateMarketplaceDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	log.Info("Начало миграции базы данных маркетплейса")

	if opt.CreateExtensions {
		log.Info("Создание расширений PostgreSQL")
		if err := db.WithContext(ctx).Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
			log.Error("Не удалось включить расширение pgcrypto", zap.Error(err))
			return err
		}
	}

	log.Info("Создание таблиц tenants, users, products, orders, order_items")
	if err := db.WithContext(ctx).AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		log.Error("Не удалось создать таблицы", zap.Error(err))
		return err
	}

	if opt.CreateUpdatedAtTrigger {
		log.Info("Создание триггеров updated_at")
		if err := run(ctx, db, log, updatedAtTriggers); err != nil {
			return err
		}
	}

	if opt.CreateChecks {
		log.Info("Создание CHECK-ограничений")
		if err := run(ctx, db, log, checks); err != nil {
			return err
		}
	}

	if opt.CreateIndexes {
		log.Info("Создание индексов")
		if err := run(ctx, db, log, indexes); err != nil {
			return err
		}
	}

	if opt.CreateFKsViaSQL {
		log.Info("Создание внешних ключей")
		if err := run(ctx, db, log, foreignKeys); err != nil {
			return err
		}
	}

	log.Info("Миграция базы данных маркетплейса успешно завершена")
	return nil
}
