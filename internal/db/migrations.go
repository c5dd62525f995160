package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		full_name VARCHAR(255) NOT NULL,
		email VARCHAR(255),
		role VARCHAR(32) NOT NULL CHECK (role IN ('ADMIN', 'SUPERVISOR', 'TECHNICIAN', 'DRIVER')),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		plate_number VARCHAR(32) NOT NULL,
		make VARCHAR(64),
		model VARCHAR(64),
		year INTEGER,
		odometer BIGINT NOT NULL DEFAULT 0 CHECK (odometer >= 0),
		status VARCHAR(32) NOT NULL DEFAULT 'ACTIVE' CHECK (status IN ('ACTIVE', 'UNDER_MAINTENANCE', 'INACTIVE')),
		last_service_at TIMESTAMPTZ,
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_vehicles_plate_number ON vehicles (plate_number);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_status ON vehicles (status) WHERE archived = FALSE;`,
	`CREATE TABLE IF NOT EXISTS preventive_plans (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		vehicle_id UUID NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		kind VARCHAR(16) NOT NULL CHECK (kind IN ('DISTANCE', 'TIME')),
		interval_km BIGINT,
		interval_days INTEGER,
		next_due_km BIGINT,
		next_due_date TIMESTAMPTZ,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK ((next_due_km IS NULL) <> (next_due_date IS NULL))
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_preventive_plans_vehicle_id ON preventive_plans (vehicle_id);`,
	`CREATE TABLE IF NOT EXISTS parts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		code VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		unit_price NUMERIC(12,2) NOT NULL CHECK (unit_price >= 0),
		stock BIGINT NOT NULL DEFAULT 0 CHECK (stock >= 0),
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_parts_code ON parts (code);`,
	`CREATE TABLE IF NOT EXISTS work_orders (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		number VARCHAR(16) NOT NULL,
		vehicle_id UUID NOT NULL REFERENCES vehicles(id),
		type VARCHAR(16) NOT NULL CHECK (type IN ('PREVENTIVE', 'CORRECTIVE')),
		description TEXT,
		state VARCHAR(16) NOT NULL DEFAULT 'PENDING' CHECK (state IN ('PENDING', 'ASSIGNED', 'IN_PROGRESS', 'CLOSED')),
		technician_id UUID REFERENCES users(id) ON DELETE SET NULL,
		total_cost NUMERIC(12,2) NOT NULL DEFAULT 0,
		created_by UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		closed_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK ((state = 'CLOSED') = (closed_at IS NOT NULL))
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_work_orders_number ON work_orders (number);`,
	`CREATE INDEX IF NOT EXISTS idx_work_orders_vehicle_id ON work_orders (vehicle_id);`,
	`CREATE INDEX IF NOT EXISTS idx_work_orders_state ON work_orders (state);`,
	`CREATE TABLE IF NOT EXISTS work_order_tasks (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		work_order_id UUID NOT NULL REFERENCES work_orders(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		description TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		technician_id UUID REFERENCES users(id) ON DELETE SET NULL,
		hours_worked NUMERIC(8,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_work_order_tasks_work_order_id ON work_order_tasks (work_order_id);`,
	`CREATE TABLE IF NOT EXISTS part_usages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		task_id UUID NOT NULL REFERENCES work_order_tasks(id) ON DELETE CASCADE,
		part_id UUID NOT NULL REFERENCES parts(id),
		quantity BIGINT NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(12,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_part_usages_task_id ON part_usages (task_id);`,
	`CREATE TABLE IF NOT EXISTS part_movements (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		part_id UUID NOT NULL REFERENCES parts(id),
		type VARCHAR(16) NOT NULL CHECK (type IN ('DEDUCT', 'RESTOCK')),
		quantity BIGINT NOT NULL,
		work_order_id UUID REFERENCES work_orders(id) ON DELETE SET NULL,
		created_by UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_part_movements_part_id ON part_movements (part_id);`,
	`CREATE TABLE IF NOT EXISTS work_order_status_log (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		work_order_id UUID NOT NULL REFERENCES work_orders(id) ON DELETE CASCADE,
		old_state VARCHAR(16),
		new_state VARCHAR(16) NOT NULL,
		note TEXT,
		changed_by UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_work_order_status_log_work_order_id ON work_order_status_log (work_order_id);`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		vehicle_id UUID NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		kind VARCHAR(16) NOT NULL CHECK (kind IN ('DISTANCE', 'TIME')),
		severity VARCHAR(16) NOT NULL CHECK (severity IN ('DUE_SOON', 'OVERDUE')),
		message TEXT NOT NULL,
		notified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_vehicle_id ON alerts (vehicle_id);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_alerts_pending_vehicle
		ON alerts (vehicle_id)
		WHERE notified = FALSE;`,
	`CREATE OR REPLACE FUNCTION set_row_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_vehicles_updated_at') THEN
			CREATE TRIGGER trg_vehicles_updated_at
				BEFORE UPDATE ON vehicles
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_parts_updated_at') THEN
			CREATE TRIGGER trg_parts_updated_at
				BEFORE UPDATE ON parts
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_work_orders_updated_at') THEN
			CREATE TRIGGER trg_work_orders_updated_at
				BEFORE UPDATE ON work_orders
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
